package fs

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fedragon/go-sorty/internal/metrics"

	"github.com/natefinch/atomic"
)

// replaceFile is swapped in tests to simulate a cross-device rename.
var replaceFile = atomic.ReplaceFile

type placement int

const (
	placeFree placement = iota
	placeDuplicate
	placeInPlace
)

// MoveToFolder moves src into dir, creating dir if needed, and returns the
// final destination. A file with identical content already at the
// destination absorbs src; a different file with the same name is kept and
// src gets a numbered name instead. A src that already lives in dir is left
// untouched.
func MoveToFolder(mx *metrics.Metrics, src, dir string) (string, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("cannot move %v: %w", src, err)
	}

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("unable to create target directory %v: %w", dir, err)
	}

	target, place, err := destination(mx, src, srcInfo, dir)
	if err != nil {
		return "", err
	}

	switch place {
	case placeInPlace:
		return target, nil
	case placeDuplicate:
		if err := os.Remove(src); err != nil {
			return "", fmt.Errorf("cannot remove duplicate %v: %w", src, err)
		}
		return target, nil
	}

	stop := mx.Record("move")
	defer func() { _ = stop() }()

	if err := replaceFile(src, target); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return "", fmt.Errorf("cannot move %v to %v: %w", src, target, err)
		}
		if err := copyAndRemove(src, target); err != nil {
			return "", err
		}
	}

	return target, nil
}

func destination(mx *metrics.Metrics, src string, srcInfo os.FileInfo, dir string) (string, placement, error) {
	name := filepath.Base(src)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	var srcHash []byte
	for i := 0; ; i++ {
		target := filepath.Join(dir, name)
		if i > 0 {
			target = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		}

		info, err := os.Stat(target)
		if os.IsNotExist(err) {
			return target, placeFree, nil
		}
		if err != nil {
			return "", placeFree, err
		}
		if os.SameFile(srcInfo, info) {
			return target, placeInPlace, nil
		}
		if info.IsDir() {
			continue
		}

		if srcHash == nil {
			if srcHash, err = Hash(mx, src); err != nil {
				return "", placeFree, err
			}
		}
		dstHash, err := Hash(mx, target)
		if err != nil {
			return "", placeFree, err
		}
		if bytes.Equal(srcHash, dstHash) {
			return target, placeDuplicate, nil
		}
	}
}

func copyAndRemove(src, target string) error {
	buf, err := os.Open(src)
	if err != nil {
		return err
	}

	err = atomic.WriteFile(target, bufio.NewReader(buf))
	_ = buf.Close()
	if err != nil {
		return fmt.Errorf("cannot atomically move file %v to %v: %w", src, target, err)
	}

	if err := os.Remove(src); err != nil {
		return fmt.Errorf("cannot remove file %v: %w", src, err)
	}

	return nil
}
