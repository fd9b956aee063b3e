package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Success(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_success.db")

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	args := []string{"-name", "Rafa", "-cpf", "123.456.789-09", "-password", "secret", "-db", dbPath}
	err := run(args, stdin, stdout, stderr)
	require.NoError(t, err)

	output := stdout.String()
	assert.Contains(t, output, "Account Rafa (12345678909) created successfully")
}

func TestRun_DuplicateAccount(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_duplicate.db")
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	args := []string{"-name", "Rafa", "-cpf", "12345678909", "-password", "secret", "-db", dbPath}

	// First run
	err := run(args, stdin, stdout, stderr)
	require.NoError(t, err, "first run should succeed")

	// Second run with a punctuated form of the same digits
	stdout.Reset()
	stderr.Reset()
	args = []string{"-name", "Other", "-cpf", "123.456.789-09", "-db", dbPath, "-password", "x"}
	err = run(args, stdin, stdout, stderr)
	require.Error(t, err, "expected error on duplicate account")
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_MissingFlags(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	args := []string{"-password", "secret"}
	err := run(args, stdin, stdout, stderr)
	require.Error(t, err, "expected error for missing flags")
	assert.Contains(t, err.Error(), "missing required flags")
	assert.Contains(t, stdout.String(), "Usage: addaccount")
}

func TestRun_PasswordFromStdin(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_stdin.db")

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := bytes.NewBufferString("piped-secret\n")

	args := []string{"-name", "Maria", "-cpf", "00009100001", "-db", dbPath}
	err := run(args, stdin, stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Account Maria (00009100001) created successfully")
}

func TestRun_EmptyPasswordMeansNone(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_nopass.db")

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer) // EOF: no password typed

	args := []string{"-name", "Maria", "-cpf", "00009100001", "-db", dbPath}
	err := run(args, stdin, stdout, stderr)
	require.NoError(t, err, "an account without a password is a valid demo account")
	assert.Contains(t, stdout.String(), "created successfully")
}
