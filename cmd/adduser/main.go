// Command adduser creates a user directly in the database. It is the way to
// bootstrap the first ADMIN account, since user administration over HTTP
// already requires one.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/repository/postgres"
	"github.com/moremoney/moremoney-backend/internal/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

func main() {
	email := flag.String("email", "", "login email (required)")
	name := flag.String("name", "", "display name (required)")
	role := flag.String("role", string(domain.RoleAdmin), "ADMIN, GERENTE or COLABORADOR")
	password := flag.String("password", "", "password; prompted for when omitted")
	companyID := flag.Int("company", 0, "company id to attach the user to")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *email == "" || *name == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	secret := *password
	if secret == "" {
		var err error
		secret, err = promptPassword()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read password")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, databaseURL, 2)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	input := service.CreateUserInput{
		Name:     *name,
		Email:    *email,
		Password: secret,
		Role:     domain.Role(strings.ToUpper(*role)),
	}
	if *companyID > 0 {
		id := int32(*companyID)
		input.CompanyID = &id
	}

	users := service.NewUserService(postgres.NewUserRepository(pool), postgres.NewCompanyRepository(pool))
	user, err := users.CreateUser(ctx, input)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("created user %d <%s> with role %s\n", user.ID, user.Email, user.Role)
}

// promptPassword reads the password twice without echo when stdin is a
// terminal, and a single line otherwise.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
