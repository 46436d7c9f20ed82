//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Runs go mod download and then builds the binary into bin/.
func (Build) Binary() error {
	if _, err := executeCmd("go", withArgs("mod", "download"), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/hellorift", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Writes the default configuration to hellorift.toml if it does not exist yet.
func (Build) Config() error {
	if _, err := os.Stat("hellorift.toml"); err == nil {
		return nil
	}
	_, err := executeCmd("go", withArgs("run", ".", "init-config", "hellorift.toml"), withStream())
	return err
}
