package mirror

import (
	"context"

	"github.com/mattjoyce/traduttore/internal/project"
)

// Locator resolves an operator-supplied identifier to a project.
type Locator interface {
	Locate(ctx context.Context, identifier string) (*project.Project, error)
}

// Remover deletes a project's mirror.
type Remover interface {
	RemoveLocalRepository(ctx context.Context, p *project.Project) error
}

// ClearCache removes the mirror of the project named by identifier and
// returns its ID. project.ErrNotFound is returned unchanged when nothing
// matches; callers format their own messages.
func ClearCache(ctx context.Context, locator Locator, remover Remover, identifier string) (int64, error) {
	p, err := locator.Locate(ctx, identifier)
	if err != nil {
		return 0, err
	}
	if err := remover.RemoveLocalRepository(ctx, p); err != nil {
		return p.ID, err
	}
	return p.ID, nil
}
