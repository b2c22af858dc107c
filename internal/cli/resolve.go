package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/alexanderramin/sillage/internal/service"
	"github.com/google/uuid"
)

// candidate is anything addressable by ID or title.
type candidate struct {
	id    string
	title string
}

// match resolves input against candidates by, in order: exact ID,
// case-insensitive title, then unique ID prefix. A full UUID is passed
// through so published entries of other owners stay reachable.
func match(what, input string, cands []candidate) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%s ID or title is required", what)
	}
	if _, err := uuid.Parse(input); err == nil && len(input) == 36 {
		return input, nil
	}

	for _, c := range cands {
		if c.id == input {
			return c.id, nil
		}
	}

	var titled []string
	for _, c := range cands {
		if strings.EqualFold(strings.TrimSpace(c.title), input) {
			titled = append(titled, c.id)
		}
	}
	if len(titled) == 1 {
		return titled[0], nil
	}
	if len(titled) > 1 {
		return "", fmt.Errorf("%s title %q is ambiguous (%d matches); use the ID", what, input, len(titled))
	}

	var prefixed []string
	for _, c := range cands {
		if strings.HasPrefix(c.id, input) {
			prefixed = append(prefixed, c.id)
		}
	}
	switch len(prefixed) {
	case 0:
		return "", fmt.Errorf("%s not found: %q", what, input)
	case 1:
		return prefixed[0], nil
	default:
		return "", fmt.Errorf("%s ID prefix %q is ambiguous (%d matches)", what, input, len(prefixed))
	}
}

func resolveMaterialID(ctx context.Context, app *App, input string) (string, error) {
	materials, err := app.Materials.List(ctx, true)
	if err != nil {
		return "", err
	}
	cands := make([]candidate, len(materials))
	for i, m := range materials {
		cands[i] = candidate{id: m.ID, title: m.Title}
	}
	return match("material", input, cands)
}

func resolveBlendID(ctx context.Context, app *App, kind domain.BlendKind, input string) (string, error) {
	blends, err := app.Blends.List(ctx, service.BlendListFilter{Kind: kind, IncludeArchived: true})
	if err != nil {
		return "", err
	}
	cands := make([]candidate, len(blends))
	for i, b := range blends {
		cands[i] = candidate{id: b.ID, title: b.Title}
	}
	return match(string(kind), input, cands)
}

// resolveLine finds a line already on the sheet by its reference ID, ID
// prefix or title.
func resolveLine(s *service.Sheet, input string) (string, error) {
	cands := make([]candidate, len(s.Rows))
	for i, r := range s.Rows {
		cands[i] = candidate{id: r.RefID, title: r.Title}
	}
	return match("ingredient", input, cands)
}
