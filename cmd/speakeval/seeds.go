package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/JaimeStill/speakeval/internal/auth"
	"github.com/JaimeStill/speakeval/internal/users"
)

//go:embed seeds/*.yaml
var seedFiles embed.FS

const defaultSeedFile = "seeds/seed.yaml"

type SeedData struct {
	Users []SeedUser `yaml:"users"`
	Exams []SeedExam `yaml:"exams"`
}

type SeedUser struct {
	Email    string     `yaml:"email"`
	Password string     `yaml:"password"`
	Name     string     `yaml:"name"`
	Role     users.Role `yaml:"role"`
}

type SeedExam struct {
	Title           string         `yaml:"title"`
	Description     string         `yaml:"description"`
	Educator        string         `yaml:"educator"`
	DurationMinutes int            `yaml:"duration_minutes"`
	Questions       []SeedQuestion `yaml:"questions"`
}

type SeedQuestion struct {
	Text           string `yaml:"text"`
	ExpectedAnswer string `yaml:"expected_answer"`
	Points         int    `yaml:"points"`
}

// loadSeedData reads path, or the embedded seed file when path is empty.
func loadSeedData(path string) (*SeedData, error) {
	var content []byte
	var err error

	if path != "" {
		content, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
	} else {
		content, err = seedFiles.ReadFile(defaultSeedFile)
		if err != nil {
			return nil, fmt.Errorf("read embedded seed file: %w", err)
		}
	}

	return parseSeedData(content)
}

func parseSeedData(content []byte) (*SeedData, error) {
	var data SeedData
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	if err := data.validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

func (d *SeedData) validate() error {
	for i, u := range d.Users {
		if u.Email == "" || u.Password == "" {
			return fmt.Errorf("user %d: email and password are required", i)
		}
		if err := u.Role.Validate(); err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
	}
	for i, e := range d.Exams {
		if e.Title == "" || e.Educator == "" {
			return fmt.Errorf("exam %d: title and educator are required", i)
		}
		if e.DurationMinutes <= 0 {
			return fmt.Errorf("exam %s: duration_minutes must be positive", e.Title)
		}
		for j, q := range e.Questions {
			if q.Text == "" || q.ExpectedAnswer == "" {
				return fmt.Errorf("exam %s question %d: text and expected_answer are required", e.Title, j+1)
			}
		}
	}
	return nil
}

// seedSource is shared by the seeders so that --file applies to all of them.
type seedSource struct {
	file string
	data *SeedData
}

func (s *seedSource) load() (*SeedData, error) {
	if s.data != nil {
		return s.data, nil
	}
	data, err := loadSeedData(s.file)
	if err != nil {
		return nil, err
	}
	s.data = data
	return data, nil
}

var source = &seedSource{}

func init() {
	registerSeeder(&UserSeeder{source: source, params: auth.DefaultHashParams})
	registerSeeder(&ExamSeeder{source: source})
}

// UserSeeder creates accounts that do not exist yet. Existing accounts keep
// their password.
type UserSeeder struct {
	source *seedSource
	params auth.HashParams
}

func (s *UserSeeder) Name() string { return "users" }

func (s *UserSeeder) Description() string {
	return "Seeds educator and student accounts"
}

func (s *UserSeeder) Seed(ctx context.Context, tx *sql.Tx) error {
	data, err := s.source.load()
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO users (id, email, password_hash, role, name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (LOWER(email)) DO NOTHING`

	for _, u := range data.Users {
		hash, err := auth.HashPassword(u.Password, s.params)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Email, err)
		}

		email := strings.TrimSpace(u.Email)
		if _, err := tx.ExecContext(ctx, query, uuid.New(), email, hash, string(u.Role), u.Name); err != nil {
			return fmt.Errorf("save user %s: %w", email, err)
		}
	}

	return nil
}

// ExamSeeder creates exams keyed by educator and title. An exam that
// already exists is left untouched along with its questions.
type ExamSeeder struct {
	source *seedSource
}

func (s *ExamSeeder) Name() string { return "exams" }

func (s *ExamSeeder) Description() string {
	return "Seeds sample exams and their questions"
}

func (s *ExamSeeder) Seed(ctx context.Context, tx *sql.Tx) error {
	data, err := s.source.load()
	if err != nil {
		return err
	}

	for _, e := range data.Exams {
		educatorID, err := s.educator(ctx, tx, e.Educator)
		if err != nil {
			return fmt.Errorf("exam %s: %w", e.Title, err)
		}

		var existing uuid.UUID
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM exams WHERE educator_id = $1 AND title = $2`,
			educatorID, e.Title,
		).Scan(&existing)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("lookup exam %s: %w", e.Title, err)
		}

		examID := uuid.New()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO exams (id, title, description, educator_id, duration_minutes, is_active)
			VALUES ($1, $2, $3, $4, $5, TRUE)`,
			examID, e.Title, e.Description, educatorID, e.DurationMinutes,
		); err != nil {
			return fmt.Errorf("save exam %s: %w", e.Title, err)
		}

		for i, q := range e.Questions {
			points := q.Points
			if points == 0 {
				points = 10
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO questions (id, exam_id, question_text, expected_answer, points, "order")
				VALUES ($1, $2, $3, $4, $5, $6)`,
				uuid.New(), examID, q.Text, q.ExpectedAnswer, points, i+1,
			); err != nil {
				return fmt.Errorf("save question %d for exam %s: %w", i+1, e.Title, err)
			}
		}
	}

	return nil
}

func (s *ExamSeeder) educator(ctx context.Context, tx *sql.Tx, email string) (uuid.UUID, error) {
	var id uuid.UUID
	var role string
	err := tx.QueryRowContext(ctx,
		`SELECT id, role FROM users WHERE LOWER(email) = LOWER($1)`,
		strings.TrimSpace(email),
	).Scan(&id, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("educator %s not found", email)
	}
	if err != nil {
		return uuid.Nil, err
	}
	if users.Role(role) != users.RoleEducator {
		return uuid.Nil, fmt.Errorf("user %s is not an educator", email)
	}
	return id, nil
}
