package utils

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/joho/godotenv"
)

// CreateIfNotExists makes the full directory path, tolerating pre-existence.
func CreateIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModePerm)
	}
	return nil
}

// CopyFile copies src to dst verbatim, carrying over the source permissions.
func CopyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		closeErr := out.Close()
		if err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// ReadEnv parses an env file into a map.
func ReadEnv(file string) (map[string]string, error) {
	return godotenv.Read(file)
}

// CleanupSlice removes empty and whitespace-only items from a slice.
func CleanupSlice(slice []string) []string {
	var cleanSlice []string
	for _, item := range slice {
		if strings.TrimSpace(item) == "" {
			continue
		}
		cleanSlice = append(cleanSlice, item)
	}
	return cleanSlice
}

// UniqueSlice removes duplicated entries from a slice while keeping the order.
func UniqueSlice(slice []string) []string {
	keys := make(map[string]bool)
	var list []string
	for _, entry := range slice {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}

// PrepareCommandWithPath returns a shell invocation for cmd with a sane PATH,
// as build environments (initrd-like containers included) can ship without one.
func PrepareCommandWithPath(cmd string) *exec.Cmd {
	c := exec.Command("/bin/sh", "-c", cmd)
	c.Env = os.Environ()
	pathAppend := "/usr/bin:/usr/sbin:/bin:/sbin"
	for i, v := range c.Env {
		if strings.HasPrefix(v, "PATH=") {
			c.Env[i] = v + ":" + pathAppend
			return c
		}
	}
	c.Env = append(c.Env, "PATH="+pathAppend)
	return c
}
