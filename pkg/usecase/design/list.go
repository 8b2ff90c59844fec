package design

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/atelierhq/decormem/pkg/model"
)

// List returns the room's versions ordered by version number ascending.
func (u *UseCase) List(ctx context.Context, room model.RoomID) ([]*model.DesignVersion, error) {
	return u.repo.ListVersions(ctx, room)
}

// Latest returns the version with the greatest number, regardless of
// selection or rejection status.
func (u *UseCase) Latest(ctx context.Context, room model.RoomID) (*model.DesignVersion, error) {
	return u.repo.LatestVersion(ctx, room)
}

// Lineage returns the ancestor chain of a version, starting at the
// version itself and following parent pointers to the root.
func (u *UseCase) Lineage(ctx context.Context, versionID model.VersionID) ([]*model.DesignVersion, error) {
	var chain []*model.DesignVersion

	current := versionID
	for current != "" {
		version, err := u.repo.GetVersion(ctx, current)
		if err != nil {
			return nil, goerr.Wrap(err, "lineage walk failed", goerr.V("version_id", current))
		}

		// Parent numbers are strictly smaller, so a repeat means the
		// stored lineage is corrupt.
		for _, seen := range chain {
			if seen.ID == version.ID {
				return nil, goerr.New("lineage cycle detected", goerr.V("version_id", version.ID))
			}
		}

		chain = append(chain, version)
		current = version.ParentVersionID
	}

	return chain, nil
}
