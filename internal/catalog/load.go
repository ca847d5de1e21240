package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/akapranchikova/quizzz/internal/domain"
)

const (
	QuestionsFile  = "questions.json"
	CharactersFile = "characters.json"
)

type questionsDocument struct {
	Categories []domain.Category `json:"categories"`
	Questions  []domain.Question `json:"questions"`
}

type charactersDocument struct {
	Characters []domain.Character `json:"characters"`
}

// LoadDir reads both catalog files from dir. It always returns a usable
// catalog: unreadable files contribute nothing and invalid entries are
// skipped. The returned error joins every problem found.
func LoadDir(dir string) (*Catalog, error) {
	var errs []error

	qdoc := questionsDocument{}
	if err := readJSON(filepath.Join(dir, QuestionsFile), &qdoc); err != nil {
		errs = append(errs, err)
		qdoc = questionsDocument{}
	}

	cdoc := charactersDocument{}
	if err := readJSON(filepath.Join(dir, CharactersFile), &cdoc); err != nil {
		errs = append(errs, err)
		cdoc = charactersDocument{}
	}

	c, err := Build(qdoc.Categories, qdoc.Questions, cdoc.Characters)
	if err != nil {
		errs = append(errs, err)
	}
	return c, errors.Join(errs...)
}

// Parse builds a catalog from raw documents, mirroring LoadDir.
func Parse(questionsJSON, charactersJSON []byte) (*Catalog, error) {
	var errs []error

	qdoc := questionsDocument{}
	if err := json.Unmarshal(questionsJSON, &qdoc); err != nil {
		errs = append(errs, fmt.Errorf("%w: %s: %w", ErrMalformedFile, QuestionsFile, err))
		qdoc = questionsDocument{}
	}
	cdoc := charactersDocument{}
	if err := json.Unmarshal(charactersJSON, &cdoc); err != nil {
		errs = append(errs, fmt.Errorf("%w: %s: %w", ErrMalformedFile, CharactersFile, err))
		cdoc = charactersDocument{}
	}

	c, err := Build(qdoc.Categories, qdoc.Questions, cdoc.Characters)
	if err != nil {
		errs = append(errs, err)
	}
	return c, errors.Join(errs...)
}

func readJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return fmt.Errorf("%w: %s: %w", ErrMalformedFile, path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedFile, path, err)
	}
	return nil
}

// Build validates entries and drops the ones that could break a round.
func Build(categories []domain.Category, questions []domain.Question, characters []domain.Character) (*Catalog, error) {
	var errs []error

	cats := make([]domain.Category, 0, len(categories))
	seenCat := map[string]bool{}
	for _, cat := range categories {
		cat.Id = strings.TrimSpace(cat.Id)
		if cat.Id == "" || seenCat[cat.Id] {
			errs = append(errs, fmt.Errorf("%w: category %q", ErrInvalidEntry, cat.Id))
			continue
		}
		if cat.Title == "" {
			cat.Title = cat.Id
		}
		seenCat[cat.Id] = true
		cats = append(cats, cat)
	}

	qs := make([]domain.Question, 0, len(questions))
	seenQ := map[string]bool{}
	for _, q := range questions {
		if err := validateQuestion(q, seenCat, seenQ); err != nil {
			errs = append(errs, err)
			continue
		}
		seenQ[q.Id] = true
		qs = append(qs, q)
	}

	chars := make([]domain.Character, 0, len(characters))
	seenCh := map[string]bool{}
	for _, ch := range characters {
		if ch.Id == "" || seenCh[ch.Id] {
			errs = append(errs, fmt.Errorf("%w: character %q", ErrInvalidEntry, ch.Id))
			continue
		}
		if ch.Ability != nil {
			a := *ch.Ability
			if a.Id == "" {
				errs = append(errs, fmt.Errorf("%w: character %q ability without id", ErrInvalidEntry, ch.Id))
				continue
			}
			if a.UsesPerGame < 0 {
				a.UsesPerGame = 0
			}
			ch.Ability = &a
		}
		seenCh[ch.Id] = true
		chars = append(chars, ch)
	}

	return New(cats, qs, chars), errors.Join(errs...)
}

func validateQuestion(q domain.Question, categories, seen map[string]bool) error {
	switch {
	case q.Id == "" || seen[q.Id]:
		return fmt.Errorf("%w: question %q duplicate or empty id", ErrInvalidEntry, q.Id)
	case !categories[q.CategoryId]:
		return fmt.Errorf("%w: question %q unknown category %q", ErrInvalidEntry, q.Id, q.CategoryId)
	case len(q.Options) < 2:
		return fmt.Errorf("%w: question %q needs at least two options", ErrInvalidEntry, q.Id)
	}
	ids := map[string]bool{}
	for _, o := range q.Options {
		if o.Id == "" || ids[o.Id] {
			return fmt.Errorf("%w: question %q duplicate option %q", ErrInvalidEntry, q.Id, o.Id)
		}
		ids[o.Id] = true
	}
	if !ids[q.CorrectOptionId] {
		return fmt.Errorf("%w: question %q correct option %q not among options", ErrInvalidEntry, q.Id, q.CorrectOptionId)
	}
	return nil
}
