package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mindtracking/internal/config"
	"mindtracking/internal/model"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/repository"
)

// Alternatives run from the worst answer (0 points) to the best (4 points)
var (
	frequency = []string{"Sempre", "Frequentemente", "Às vezes", "Raramente", "Nunca"}
	wellbeing = []string{"Nunca", "Raramente", "Às vezes", "Frequentemente", "Sempre"}
	quality   = []string{"Muito ruim", "Ruim", "Regular", "Boa", "Muito boa"}
)

type seedQuestion struct {
	text  string
	scale []string
}

var initialQuestions = []seedQuestion{
	{"Com que frequência você se sente ansioso(a) ou nervoso(a)?", frequency},
	{"Com que frequência você se sente triste ou desanimado(a)?", frequency},
	{"Como você avalia a qualidade do seu sono?", quality},
	{"Com que frequência você sente prazer nas atividades do dia a dia?", wellbeing},
	{"Com que frequência você se sente sobrecarregado(a) pelas suas responsabilidades?", frequency},
	{"Como você avalia sua disposição física ao longo do dia?", quality},
	{"Com que frequência você consegue se concentrar nas suas tarefas?", wellbeing},
	{"Com que frequência você se sente sozinho(a)?", frequency},
	{"Como você avalia seus relacionamentos com amigos e família?", quality},
	{"Com que frequência você se sente esperançoso(a) em relação ao futuro?", wellbeing},
}

var dailyQuestions = []seedQuestion{
	{"Hoje, com que frequência você se sentiu tenso(a)?", frequency},
	{"Como foi a qualidade do seu sono na última noite?", quality},
	{"Hoje, com que frequência você se sentiu calmo(a)?", wellbeing},
	{"Hoje, com que frequência você teve pensamentos negativos?", frequency},
	{"Como você avalia sua alimentação hoje?", quality},
	{"Hoje, com que frequência você se sentiu motivado(a)?", wellbeing},
	{"Hoje, com que frequência você se sentiu irritado(a)?", frequency},
	{"Como você avalia seu nível de energia hoje?", quality},
	{"Hoje, com que frequência você conseguiu descansar?", wellbeing},
	{"Hoje, com que frequência você se sentiu preocupado(a)?", frequency},
	{"Como você avalia suas interações sociais hoje?", quality},
	{"Hoje, com que frequência você se sentiu grato(a)?", wellbeing},
	{"Hoje, com que frequência você se sentiu cansado(a) sem motivo?", frequency},
	{"Como você avalia sua produtividade hoje?", quality},
	{"Hoje, com que frequência você fez algo de que gosta?", wellbeing},
	{"Hoje, com que frequência você se sentiu inseguro(a)?", frequency},
	{"Como você avalia seu humor geral hoje?", quality},
	{"Hoje, com que frequência você se sentiu confiante?", wellbeing},
	{"Hoje, com que frequência você evitou pessoas ou compromissos?", frequency},
	{"Como você avalia o tempo que dedicou a si mesmo(a) hoje?", quality},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("failed to connect to MongoDB", "error", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("failed to ensure indexes", "error", err)
	}

	repo := repository.NewQuestionRepo(db)
	all := append(append([]seedQuestion{}, initialQuestions...), dailyQuestions...)
	for i, sq := range all {
		q := buildQuestion(i+1, sq)
		if err := repo.Upsert(ctx, q); err != nil {
			log.Fatal("failed to seed question", "id", q.ID, "error", err)
		}
	}

	log.Info("catalog seeded", "initial", len(initialQuestions), "daily", len(dailyQuestions), "db", cfg.MongoDB)
}

// buildQuestion numbers alternatives as id*10+k, with alternative k worth k-1 points
func buildQuestion(id int, sq seedQuestion) *model.Question {
	q := &model.Question{ID: id, Text: sq.text}
	for k, text := range sq.scale {
		q.Alternatives = append(q.Alternatives, model.Alternative{
			ID:     id*10 + k + 1,
			Text:   text,
			Points: k,
		})
	}
	return q
}
