package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"fizpay/internal/storage"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("addaccount", flag.ContinueOnError)
	fs.SetOutput(stderr)

	name := fs.String("name", "", "Display name")
	taxID := fs.String("cpf", "", "CPF/CNPJ (punctuation allowed)")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	avatar := fs.String("avatar", "", "Avatar URI (optional)")
	dbPath := fs.String("db", "fizpay.db", "Path to database file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" || storage.NormalizeTaxID(*taxID) == "" {
		fmt.Fprintln(stdout, "Usage: addaccount -name <name> -cpf <cpf_cnpj> [-password <password>] [-avatar <uri>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: name, cpf")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password (empty for none): ")
		var err error
		password, err = readPassword(stdin)
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout) // Print newline after password input
	}

	// Allow overriding db path via env var if not explicitly set via flag (flag default is used)
	if path := os.Getenv("DB_PATH"); path != "" && *dbPath == "fizpay.db" {
		*dbPath = path
	}

	db, err := storage.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	existing, err := db.GetAccountByTaxID(*taxID)
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("account %s already exists", storage.NormalizeTaxID(*taxID))
	}

	var passwordArg *string
	if strings.TrimSpace(password) != "" {
		passwordArg = &password
	}
	var avatarArg *string
	if *avatar != "" {
		avatarArg = avatar
	}

	account, err := db.CreateAccount(*name, *taxID, passwordArg, avatarArg)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	fmt.Fprintf(stdout, "Account %s (%s) created successfully with ID %d\n", account.Name, account.TaxID, account.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
