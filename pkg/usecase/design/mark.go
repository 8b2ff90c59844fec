package design

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/atelierhq/decormem/pkg/model"
)

// MarkSelected flags a version as selected. When imageID is non-empty the
// corresponding image of the version is flagged as well.
func (u *UseCase) MarkSelected(ctx context.Context, versionID model.VersionID, imageID model.ImageID) (*model.DesignVersion, error) {
	return u.mark(ctx, versionID, imageID, func(v *model.DesignVersion) {
		v.Selected = true
	})
}

// MarkRejected flags a version as rejected.
func (u *UseCase) MarkRejected(ctx context.Context, versionID model.VersionID) (*model.DesignVersion, error) {
	return u.mark(ctx, versionID, "", func(v *model.DesignVersion) {
		v.Rejected = true
	})
}

func (u *UseCase) mark(ctx context.Context, versionID model.VersionID, imageID model.ImageID, set func(*model.DesignVersion)) (*model.DesignVersion, error) {
	version, err := u.repo.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	set(version)
	if err := u.repo.UpdateVersion(ctx, version); err != nil {
		return nil, goerr.Wrap(err, "failed to update version", goerr.V("version_id", versionID))
	}

	if imageID != "" {
		image, err := u.repo.GetImage(ctx, imageID)
		if err != nil {
			return nil, err
		}
		if image.VersionID != versionID {
			return nil, goerr.Wrap(model.ErrNotFound, "image belongs to a different version",
				goerr.V("image_id", imageID), goerr.V("version_id", versionID))
		}

		image.Selected = true
		if err := u.repo.UpdateImage(ctx, image); err != nil {
			return nil, goerr.Wrap(err, "failed to update image", goerr.V("image_id", imageID))
		}
	}

	return version, nil
}
