package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"phish-sim-backend/models"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

type challengeFile struct {
	Challenges []challengeSeed `yaml:"challenges"`
}

type challengeSeed struct {
	ID          string          `yaml:"id"`
	Title       string          `yaml:"title"`
	Sender      string          `yaml:"sender"`
	Body        string          `yaml:"body"`
	HTMLBody    string          `yaml:"html_body"`
	ImageURL    string          `yaml:"image_url"`
	Options     []models.Option `yaml:"options"`
	Explanation string          `yaml:"explanation"`
	Difficulty  string          `yaml:"difficulty"`
	Points      int64           `yaml:"points"`
}

// ImportDir loads every *.yaml / *.yml file in dir into the catalog. Invalid
// entries are logged and skipped; entries whose id already exists are left
// untouched.
func (s *ChallengeService) ImportDir(ctx context.Context, dir string) (int, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return 0, newError(KindInvalidInput, "ChallengeService.ImportDir", err)
		}
		files = append(files, matches...)
	}

	imported := 0
	for _, file := range files {
		n, err := s.ImportFile(ctx, file)
		if err != nil {
			s.log.Warn("failed to import challenge file", "file", file, "error", err)
			continue
		}
		imported += n
	}
	s.log.Info("challenge catalog imported", "dir", dir, "files", len(files), "challenges", imported)
	return imported, nil
}

func (s *ChallengeService) ImportFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}
	var f challengeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("failed to parse YAML: %w", err)
	}

	imported := 0
	for i, seed := range f.Challenges {
		ch := seed.toModel()
		if err := ch.Validate(); err != nil {
			s.log.Warn("skipping invalid challenge", "file", path, "index", i, "error", err)
			continue
		}
		res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(ch)
		if res.Error != nil {
			return imported, res.Error
		}
		imported += int(res.RowsAffected)
	}
	return imported, nil
}

func (c challengeSeed) toModel() *models.Challenge {
	d, ok := models.ParseDifficulty(c.Difficulty)
	if !ok {
		d = models.Difficulty(c.Difficulty)
	}
	return &models.Challenge{
		ID:          c.ID,
		Title:       c.Title,
		Sender:      c.Sender,
		Body:        c.Body,
		HTMLBody:    c.HTMLBody,
		ImageURL:    c.ImageURL,
		Options:     datatypes.JSONSlice[models.Option](c.Options),
		Explanation: c.Explanation,
		Difficulty:  d,
		Points:      c.Points,
		GeneratedBy: "seed",
	}
}
