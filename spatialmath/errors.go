package spatialmath

import "github.com/pkg/errors"

func newBadRotationMatrixLengthError(length int) error {
	return errors.Errorf("need exactly 9 values to make a rotation matrix, got %d", length)
}
