package design

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/atelierhq/decormem/pkg/model"
)

// AttachImage adds a rendered image to an existing version.
func (u *UseCase) AttachImage(ctx context.Context, versionID model.VersionID, locator string) (*model.DesignImage, error) {
	if _, err := u.repo.GetVersion(ctx, versionID); err != nil {
		return nil, err
	}

	image := &model.DesignImage{
		ID:        model.NewImageID(),
		VersionID: versionID,
		Locator:   locator,
		CreatedAt: u.now(),
	}

	if err := u.repo.PutImage(ctx, image); err != nil {
		return nil, goerr.Wrap(err, "failed to store image", goerr.V("version_id", versionID))
	}

	return image, nil
}

// Images returns the version's images in creation order.
func (u *UseCase) Images(ctx context.Context, versionID model.VersionID) ([]*model.DesignImage, error) {
	return u.repo.ListImages(ctx, versionID)
}
