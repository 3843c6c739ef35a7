//go:build !linux

package scmp

func SetNoNewPrivs() error {
	return ErrSeccompNotEnabled
}
