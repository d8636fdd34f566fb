package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"phish-sim-backend/logger"
	"phish-sim-backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChallengeService struct {
	DB  *gorm.DB
	log *logger.Logger
}

func NewChallengeService(db *gorm.DB, log *logger.Logger) *ChallengeService {
	return &ChallengeService{DB: db, log: log.With("service", "ChallengeService")}
}

func (s *ChallengeService) Get(ctx context.Context, id string) (*models.Challenge, error) {
	const op = "ChallengeService.Get"
	if strings.TrimSpace(id) == "" {
		return nil, newErrorf(KindInvalidInput, op, "challenge id is required")
	}
	var ch models.Challenge
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&ch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newErrorf(KindNotFound, op, "challenge %s", id)
		}
		return nil, newError(KindInternal, op, err)
	}
	return &ch, nil
}

func (s *ChallengeService) ListByDifficulty(ctx context.Context, d models.Difficulty, limit int) ([]models.Challenge, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []models.Challenge
	err := s.DB.WithContext(ctx).
		Where("LOWER(difficulty) = ?", strings.ToLower(string(d))).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, newError(KindInternal, "ChallengeService.ListByDifficulty", err)
	}
	return out, nil
}

// Random picks any challenge except excludeID. It returns nil, nil on an
// empty catalog.
func (s *ChallengeService) Random(ctx context.Context, excludeID string) (*models.Challenge, error) {
	q := s.DB.WithContext(ctx).Model(&models.Challenge{})
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var out []models.Challenge
	if err := q.Order("RANDOM()").Limit(1).Find(&out).Error; err != nil {
		return nil, newError(KindInternal, "ChallengeService.Random", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (s *ChallengeService) Create(ctx context.Context, ch *models.Challenge) error {
	const op = "ChallengeService.Create"
	d, ok := models.ParseDifficulty(string(ch.Difficulty))
	if ok {
		ch.Difficulty = d
	}
	if err := ch.Validate(); err != nil {
		return newError(KindInvalidInput, op, err)
	}
	if err := s.DB.WithContext(ctx).Create(ch).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return newErrorf(KindConflict, op, "challenge %s already exists", ch.ID)
		}
		return newError(KindInternal, op, err)
	}
	return nil
}

// Generate stores a templated training email for the given difficulty.
func (s *ChallengeService) Generate(ctx context.Context, difficulty string) (*models.Challenge, error) {
	if strings.TrimSpace(difficulty) == "" {
		difficulty = string(models.DifficultyBeginner)
	}
	d, ok := models.ParseDifficulty(difficulty)
	if !ok {
		return nil, newErrorf(KindInvalidInput, "ChallengeService.Generate", "unknown difficulty %q", difficulty)
	}
	ch := buildChallenge(d)
	if err := s.Create(ctx, ch); err != nil {
		return nil, err
	}
	s.log.Info("challenge generated", "challenge_id", ch.ID, "difficulty", d)
	return ch, nil
}

var (
	domainWords  = []string{"secure", "update", "verify", "account", "billing", "notify", "support", "alert", "mail", "service"}
	firstNames   = []string{"Alex", "Priya", "Rohit", "Asha", "Vikram", "Sneha", "Karan", "Aman", "Rupesh", "Nisha"}
	lastNames    = []string{"Kumar", "Verma", "Singh", "Gupta", "Patel", "Rao", "Joshi"}
	companies    = []string{"Globex", "Finova", "TrustBank", "CloudServe", "NetSafe", "Apex Solutions", "Bluegate"}
	companyKinds = []string{"Inc", "LLC", "Pvt Ltd", "Corporation"}
	logoURLs     = []string{
		"https://upload.wikimedia.org/wikipedia/commons/5/5f/Google_Icons_Gmail.svg",
		"https://upload.wikimedia.org/wikipedia/commons/4/44/Microsoft_logo.svg",
		"https://upload.wikimedia.org/wikipedia/commons/b/b5/PayPal.svg",
		"https://upload.wikimedia.org/wikipedia/commons/a/a9/Amazon_logo.svg",
		"https://upload.wikimedia.org/wikipedia/commons/7/78/Dropbox_logo_2017.svg",
	}
)

func pick(xs []string) string { return xs[rand.IntN(len(xs))] }

func between(lo, hi int) int { return lo + rand.IntN(hi-lo+1) }

func standardOptions(correct models.OptionID) datatypes.JSONSlice[models.Option] {
	return datatypes.JSONSlice[models.Option]{
		{ID: models.OptionA, Text: "This is a phishing email", Correct: correct == models.OptionA},
		{ID: models.OptionB, Text: "This is a safe email", Correct: correct == models.OptionB},
		{ID: models.OptionC, Text: "Looks suspicious but not harmful", Correct: correct == models.OptionC},
	}
}

func buildChallenge(d models.Difficulty) *models.Challenge {
	domain := fmt.Sprintf("%s-%d.com", pick(domainWords), between(10, 999))
	link := fmt.Sprintf("http://%s/login/%06x", domain, rand.IntN(1<<24))
	company := pick(companies) + " " + pick(companyKinds)
	person := pick(firstNames) + " " + pick(lastNames)

	ch := &models.Challenge{
		Difficulty:  d,
		ImageURL:    pick(logoURLs),
		Options:     standardOptions(models.OptionA),
		Points:      models.DefaultChallengePoints,
		GeneratedBy: "local",
	}

	switch d {
	case models.DifficultyBeginner:
		ch.Title = pick([]string{"Verify your account now!", "Your password will expire soon", "Unusual login attempt detected"})
		ch.Sender = fmt.Sprintf("%s <no-reply@%s>", company, domain)
		ch.Body = fmt.Sprintf("Dear user,\nWe detected suspicious activity on your account. Please verify immediately: %s\nFailure to act may lead to suspension.", link)
		ch.HTMLBody = fmt.Sprintf(`<div><p>Dear user,</p><p>We detected suspicious activity on your account. <a href="%s">Verify your account</a> immediately to avoid suspension.</p></div>`, link)
		ch.Explanation = fmt.Sprintf("Uses urgency and a suspicious link (%s). Sender domain is not an official domain for the service.", link)
	case models.DifficultyIntermediate:
		invoice := fmt.Sprintf("INV-%d", between(1000, 9999))
		amount := fmt.Sprintf("$%d", between(50, 1500))
		ch.Title = pick([]string{fmt.Sprintf("Invoice #%d for your recent payment", between(1000, 9999)), "Payment failed - update billing details", "Your subscription has been paused"})
		ch.Sender = fmt.Sprintf("%s from %s <billing@%s>", person, company, domain)
		ch.Body = fmt.Sprintf("Hello,\nPlease find attached invoice %s. Amount due: %s.\nDownload invoice: %s\nIf payment is not received within 3 days, services may be interrupted.", invoice, amount, link)
		ch.HTMLBody = fmt.Sprintf(`<div><h3>Invoice %s</h3><p>Dear Customer,</p><p>Your payment of <strong>%s</strong> failed. Download your invoice: <a href="%s">Download Invoice</a></p></div>`, invoice, amount, link)
		ch.Explanation = fmt.Sprintf("Asks to download an invoice through an external link (%s) from a non-official domain and pressures for quick payment.", link)
	default:
		user := strings.ToLower(strings.Fields(person)[0])
		ch.Title = pick([]string{"IT Notice: Credential validation required", "HR Update: Payroll verification needed", "Security update for internal employees"})
		ch.Sender = fmt.Sprintf("%s <%s@%s>", person, user, domain)
		ch.Body = fmt.Sprintf("Team,\nAs part of a scheduled maintenance we require all staff to validate credentials. Please validate here: %s\nThis is mandatory.", link)
		ch.HTMLBody = fmt.Sprintf(`<div><p>Team,</p><p>As part of maintenance we require all staff to validate access credentials. Please <a href="%s">validate now</a>.</p><p>Regards,<br/>%s</p></div>`, link, person)
		ch.Explanation = fmt.Sprintf("Spear-phishing style referencing internal processes and requiring credential validation from a suspicious domain (%s).", link)
	}
	return ch
}
