//go:build !govips || !cgo

package pipeline

import (
	"errors"
	"image"
)

func Startup() error {
	return nil
}

func Shutdown() {}

func nativeHeicAvailable() bool {
	return false
}

func nativeHeicDecode(string) (image.Image, error) {
	return nil, errors.New("native HEIC decoding requires the govips build tag")
}
