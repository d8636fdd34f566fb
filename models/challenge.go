package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultChallengePoints int64 = 10

// OptionID identifies one of the three answers of a challenge.
type OptionID string

const (
	OptionA OptionID = "A"
	OptionB OptionID = "B"
	OptionC OptionID = "C"
)

var optionIDs = map[string]OptionID{
	"A": OptionA,
	"B": OptionB,
	"C": OptionC,
}

// ParseOptionID maps client input onto the fixed option set.
func ParseOptionID(raw string) (OptionID, bool) {
	id, ok := optionIDs[strings.ToUpper(strings.TrimSpace(raw))]
	return id, ok
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyExpert       Difficulty = "expert"
)

func ParseDifficulty(raw string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert:
		return d, true
	}
	return "", false
}

type Option struct {
	ID      OptionID `json:"id" yaml:"id"`
	Text    string   `json:"text" yaml:"text"`
	Correct bool     `json:"correct" yaml:"correct"`
}

// Challenge is one simulated email the user has to classify.
type Challenge struct {
	ID          string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string                      `gorm:"not null" json:"title"`
	Sender      string                      `json:"sender"`
	Body        string                      `gorm:"type:text" json:"body"`
	HTMLBody    string                      `gorm:"type:text" json:"html_body,omitempty"`
	ImageURL    string                      `json:"image_url,omitempty"`
	Options     datatypes.JSONSlice[Option] `json:"options"`
	Explanation string                      `gorm:"type:text" json:"explanation"`
	Difficulty  Difficulty                  `gorm:"type:varchar(16);index;not null" json:"difficulty"`
	Points      int64                       `gorm:"not null;default:10" json:"points"`
	GeneratedBy string                      `gorm:"type:varchar(16)" json:"generated_by,omitempty"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// PointValue is what a correct answer is worth.
func (c *Challenge) PointValue() int64 {
	if c.Points <= 0 {
		return DefaultChallengePoints
	}
	return c.Points
}

func (c *Challenge) Option(id OptionID) (Option, bool) {
	for _, o := range c.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

func (c *Challenge) CorrectOption() (Option, bool) {
	for _, o := range c.Options {
		if o.Correct {
			return o, true
		}
	}
	return Option{}, false
}

var (
	ErrOptionCount   = errors.New("challenge needs exactly 3 options")
	ErrCorrectOption = errors.New("challenge needs exactly one correct option")
)

func (c *Challenge) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return errors.New("challenge title is required")
	}
	if _, ok := ParseDifficulty(string(c.Difficulty)); !ok {
		return fmt.Errorf("unknown difficulty %q", c.Difficulty)
	}
	if len(c.Options) != 3 {
		return ErrOptionCount
	}
	seen := map[OptionID]bool{}
	correct := 0
	for _, o := range c.Options {
		if _, ok := optionIDs[string(o.ID)]; !ok {
			return fmt.Errorf("unknown option id %q", o.ID)
		}
		if seen[o.ID] {
			return fmt.Errorf("duplicate option id %q", o.ID)
		}
		seen[o.ID] = true
		if o.Correct {
			correct++
		}
	}
	if correct != 1 {
		return ErrCorrectOption
	}
	return nil
}

// PublicOption hides the answer key.
type PublicOption struct {
	ID   OptionID `json:"id"`
	Text string   `json:"text"`
}

type PublicChallenge struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Sender     string         `json:"sender"`
	Body       string         `json:"body"`
	HTMLBody   string         `json:"html_body,omitempty"`
	ImageURL   string         `json:"image_url,omitempty"`
	Options    []PublicOption `json:"options"`
	Difficulty Difficulty     `json:"difficulty"`
	Points     int64          `json:"points"`
}

func (c *Challenge) Public() PublicChallenge {
	opts := make([]PublicOption, 0, len(c.Options))
	for _, o := range c.Options {
		opts = append(opts, PublicOption{ID: o.ID, Text: o.Text})
	}
	return PublicChallenge{
		ID:         c.ID,
		Title:      c.Title,
		Sender:     c.Sender,
		Body:       c.Body,
		HTMLBody:   c.HTMLBody,
		ImageURL:   c.ImageURL,
		Options:    opts,
		Difficulty: c.Difficulty,
		Points:     c.PointValue(),
	}
}
