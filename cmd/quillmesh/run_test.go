package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_Help(t *testing.T) {
	assert.Equal(t, 0, Run(context.Background(), []string{"--help"}))
}

func TestRun_Version(t *testing.T) {
	assert.Equal(t, 0, Run(context.Background(), []string{"--version"}))
}

func TestRun_UnknownFlag(t *testing.T) {
	assert.Equal(t, 1, Run(context.Background(), []string{"--unknown-flag"}))
}
