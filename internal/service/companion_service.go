package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode"

	"mindtracking/internal/config"
	"mindtracking/internal/model"
)

// Assistant is the language-model companion used by the diary and chat services
type Assistant interface {
	// AnalyzeDiary never fails: it falls back to a neutral analysis
	AnalyzeDiary(ctx context.Context, text string) *model.DiaryAnalysis
	Reply(ctx context.Context, turns []model.ChatMessage) (string, error)
	Diagnose(ctx context.Context, userMessages []string) (string, error)
	Tip(ctx context.Context, diagnosis string) (string, error)
}

// CompanionService talks to the Gemini API, or answers from canned
// responses when no API key is configured.
type CompanionService struct {
	config *config.AIConfig
	client *http.Client
}

// NewCompanionService creates a new companion service
func NewCompanionService(cfg *config.AIConfig) *CompanionService {
	if cfg == nil {
		cfg = config.DefaultAIConfig()
	}
	return &CompanionService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

// Fallback analyses
var (
	unanalysableDiary = model.DiaryAnalysis{
		Emotion:   "indefinido",
		Intensity: model.IntensityLow,
		Comment:   "Não consegui identificar emoções nesse texto. Tente escrever de forma mais detalhada sobre como você está se sentindo.",
	}
	neutralDiary = model.DiaryAnalysis{
		Emotion:   "neutro",
		Intensity: model.IntensityModerate,
		Comment:   "Obrigada por compartilhar seus pensamentos. Continuarei analisando suas entradas para oferecer melhor suporte.",
	}
)

// AnalyzeDiary classifies a diary entry
func (s *CompanionService) AnalyzeDiary(ctx context.Context, text string) *model.DiaryAnalysis {
	if unanalysable(text) {
		a := unanalysableDiary
		return &a
	}
	if !s.config.IsEnabled() {
		return mockDiaryAnalysis(text)
	}

	response, err := s.callGemini(ctx, s.config.Models.DiaryAnalysis, diarySystemPrompt,
		[]model.ChatMessage{{Role: model.RoleUser, Content: buildDiaryPrompt(text)}}, 0.3, true)
	if err != nil {
		a := neutralDiary
		return &a
	}
	return parseDiaryAnalysis(response)
}

// Reply answers the latest user turn given the conversation so far
func (s *CompanionService) Reply(ctx context.Context, turns []model.ChatMessage) (string, error) {
	if !s.config.IsEnabled() {
		return mockReply(turns), nil
	}
	response, err := s.callGemini(ctx, s.config.Models.Chat, chatSystemPrompt, turns, 0.2, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

// Diagnose writes a short emotional profile from the user's recent messages
func (s *CompanionService) Diagnose(ctx context.Context, userMessages []string) (string, error) {
	if len(userMessages) == 0 {
		return "", fmt.Errorf("no messages to diagnose")
	}
	if !s.config.IsEnabled() {
		return mockDiagnosis(userMessages), nil
	}
	response, err := s.callGemini(ctx, s.config.Models.Diagnosis, "",
		[]model.ChatMessage{{Role: model.RoleUser, Content: buildDiagnosisPrompt(userMessages)}}, 0.4, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

// Tip turns a diagnosis into a practical suggestion
func (s *CompanionService) Tip(ctx context.Context, diagnosis string) (string, error) {
	if !s.config.IsEnabled() {
		return mockTip(diagnosis), nil
	}
	response, err := s.callGemini(ctx, s.config.Models.Tip, "",
		[]model.ChatMessage{{Role: model.RoleUser, Content: buildTipPrompt(diagnosis)}}, 0.5, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

// callGemini makes a request to the Gemini API
func (s *CompanionService) callGemini(ctx context.Context, modelName, system string, turns []model.ChatMessage, temperature float64, jsonMode bool) (string, error) {
	contents := make([]map[string]interface{}, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == model.RoleAssistant {
			role = "model"
		}
		contents = append(contents, map[string]interface{}{
			"role":  role,
			"parts": []map[string]string{{"text": t.Content}},
		})
	}

	genConfig := map[string]interface{}{"temperature": temperature}
	if jsonMode {
		genConfig["responseMimeType"] = "application/json"
	}
	reqBody := map[string]interface{}{
		"contents":         contents,
		"generationConfig": genConfig,
	}
	if system != "" {
		reqBody["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]string{{"text": system}},
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(modelName), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		if text := geminiResp.Candidates[0].Content.Parts[0].Text; strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("empty response from Gemini")
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// parseDiaryAnalysis extracts the JSON object from a model response.
// Incomplete answers fall back to the neutral analysis; unknown tiers become moderada.
func parseDiaryAnalysis(response string) *model.DiaryAnalysis {
	raw := jsonObject.FindString(response)
	if raw == "" {
		a := neutralDiary
		return &a
	}
	var a model.DiaryAnalysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		n := neutralDiary
		return &n
	}
	if strings.TrimSpace(a.Emotion) == "" || a.Intensity == "" || strings.TrimSpace(a.Comment) == "" {
		n := neutralDiary
		return &n
	}
	a.Intensity = model.Intensity(strings.ToLower(strings.TrimSpace(string(a.Intensity))))
	if _, ok := a.Intensity.Weight(); !ok {
		a.Intensity = model.IntensityModerate
	}
	a.Emotion = strings.ToLower(strings.TrimSpace(a.Emotion))
	return &a
}

// unanalysable reports text made only of symbols or of words up to two letters long
func unanalysable(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return true
	}
	onlySymbols := true
	for _, r := range t {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsSpace(r) {
			onlySymbols = false
			break
		}
	}
	if onlySymbols {
		return true
	}
	for _, w := range strings.Fields(t) {
		if len([]rune(w)) > 2 {
			return false
		}
	}
	return true
}

// Mock implementations

var emotionLexicon = []struct {
	stem    string
	emotion string
}{
	{"ansios", "ansiedade"},
	{"preocupad", "ansiedade"},
	{"trist", "tristeza"},
	{"chor", "tristeza"},
	{"raiva", "raiva"},
	{"irritad", "raiva"},
	{"feliz", "felicidade"},
	{"alegr", "felicidade"},
	{"calm", "calma"},
	{"tranquil", "calma"},
	{"cansad", "cansaço"},
}

var intensifiers = []string{"muito", "demais", "extremamente", "nunca", "sempre", "insuportável"}

func mockDiaryAnalysis(text string) *model.DiaryAnalysis {
	lower := strings.ToLower(text)
	a := neutralDiary
	for _, e := range emotionLexicon {
		if strings.Contains(lower, e.stem) {
			a.Emotion = e.emotion
			break
		}
	}

	hits := strings.Count(text, "!")
	for _, w := range intensifiers {
		hits += strings.Count(lower, w)
	}
	switch {
	case hits >= 2:
		a.Intensity = model.IntensityHigh
	case hits == 0 && a.Emotion == "neutro":
		a.Intensity = model.IntensityLow
	default:
		a.Intensity = model.IntensityModerate
	}
	a.Comment = "Obrigada por compartilhar. Reserve um momento para respirar fundo e observar o que você está sentindo."
	return &a
}

func mockReply(turns []model.ChatMessage) string {
	if len(turns) <= 1 {
		return "Olá! Estou aqui para ouvir você. Como você está se sentindo hoje?"
	}
	return "Entendo. Obrigada por compartilhar isso comigo. O que mais tem passado pela sua cabeça?"
}

func mockDiagnosis(userMessages []string) string {
	return fmt.Sprintf("Diagnóstico: Com base em %d mensagens, você demonstra necessidade de acolhimento e de organizar seus sentimentos.\nDica: Reserve dez minutos por dia para escrever sobre o que sentiu.", len(userMessages))
}

func mockTip(diagnosis string) string {
	return "Dica: Experimente a respiração 4-7-8 antes de dormir: inspire por 4 segundos, segure por 7 e solte por 8. Repita quatro vezes."
}
