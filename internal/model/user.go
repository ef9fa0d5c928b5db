package model

import "time"

// User is an account. PasswordHash never leaves the server.
type User struct {
	ID                   string    `json:"id" bson:"_id"`
	Name                 string    `json:"nome" bson:"name"`
	Email                string    `json:"email" bson:"email"`
	PasswordHash         string    `json:"-" bson:"passwordHash"`
	BirthDate            time.Time `json:"data_nascimento" bson:"birthDate"`
	InitialQuestionnaire bool      `json:"questionario_inicial" bson:"initialQuestionnaire"`
	CreatedAt            time.Time `json:"criado_em" bson:"createdAt"`
}

// Profile is the public view of a user
type Profile struct {
	ID                   string `json:"id"`
	Name                 string `json:"nome"`
	Email                string `json:"email"`
	InitialQuestionnaire bool   `json:"questionario_inicial"`
}

// Profile returns the public view of u
func (u *User) Profile() Profile {
	return Profile{
		ID:                   u.ID,
		Name:                 u.Name,
		Email:                u.Email,
		InitialQuestionnaire: u.InitialQuestionnaire,
	}
}

// AgeAt returns the age in whole years at t
func (u *User) AgeAt(t time.Time) int {
	if u.BirthDate.IsZero() {
		return 0
	}
	age := t.Year() - u.BirthDate.Year()
	if t.Month() < u.BirthDate.Month() ||
		(t.Month() == u.BirthDate.Month() && t.Day() < u.BirthDate.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// UserStats summarizes a user's activity
type UserStats struct {
	TotalQuestionnaires int `json:"total_questionarios"`
	Age                 int `json:"idade"`
}
