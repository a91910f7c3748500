package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/dangerclosesec/pathway/internal/email"
	"github.com/dangerclosesec/pathway/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	closerDryRun    bool
	closerBatchSize int

	reportOrganization string

	adminEmail     string
	adminFirstName string
	adminLastName  string
)

func init() {
	closeExpiredCmd.Flags().BoolVar(&closerDryRun, "dry-run", false, "Log the offerings that would close without changing them")
	closeExpiredCmd.Flags().IntVar(&closerBatchSize, "batch-size", 100, "Offerings closed per query")

	reportCmd.Flags().StringVar(&reportOrganization, "organization", "", "Summarise one organization instead of the platform")

	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Administrator email")
	createAdminCmd.Flags().StringVar(&adminFirstName, "first-name", "", "Administrator first name")
	createAdminCmd.Flags().StringVar(&adminLastName, "last-name", "", "Administrator last name")
	createAdminCmd.MarkFlagRequired("email")
	createAdminCmd.MarkFlagRequired("first-name")
}

var closeExpiredCmd = &cobra.Command{
	Use:   "close-expired",
	Short: "Close offerings whose deadline has passed",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		svc := newServices(cfg, openGorm(cfg), email.ProviderLog)
		defer svc.close()

		closer := service.NewOfferingCloser(svc.offeringRepo, svc.cache, 0, slog.Default())
		closer.SetBatchSize(closerBatchSize)
		closer.SetDryRun(closerDryRun)

		n, err := closer.CloseExpired(context.Background())
		if err != nil {
			log.Fatalf("Error closing offerings: %v", err)
		}
		if closerDryRun {
			fmt.Printf("%d offerings would be closed\n", n)
			return
		}
		fmt.Printf("%d offerings closed\n", n)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print application, user and offering totals as JSON",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		svc := newServices(cfg, openGorm(cfg), email.ProviderLog)
		defer svc.close()

		ctx := context.Background()
		var out any
		if reportOrganization != "" {
			orgID, err := uuid.Parse(reportOrganization)
			if err != nil {
				log.Fatalf("Invalid organization id: %v", err)
			}
			if _, err := svc.organizations.Get(ctx, orgID); err != nil {
				log.Fatalf("Error loading organization: %v", err)
			}
			summary, err := svc.reports.Organization(ctx, orgID)
			if err != nil {
				log.Fatalf("Error building report: %v", err)
			}
			out = summary
		} else {
			report, err := svc.reports.Platform(ctx)
			if err != nil {
				log.Fatalf("Error building report: %v", err)
			}
			out = report
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatalf("Error writing report: %v", err)
		}
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a verified administrator account",
	Long:  `The password is read from PATHWAY_ADMIN_PASSWORD when set. Otherwise it is prompted for, or read from the first line of stdin when stdin is not a terminal.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		password, err := readPassword(os.Stdin, int(os.Stdin.Fd()))
		if err != nil {
			log.Fatalf("Error reading password: %v", err)
		}

		svc := newServices(cfg, openGorm(cfg), email.ProviderLog)
		defer svc.close()

		user, err := svc.users.CreateAdmin(context.Background(), service.CreateAdminInput{
			Email:     adminEmail,
			FirstName: adminFirstName,
			LastName:  adminLastName,
			Password:  password,
		})
		if err != nil {
			log.Fatalf("Error creating administrator: %v", err)
		}
		fmt.Printf("Created administrator %s (%s)\n", user.Email, user.ID)
	},
}

var (
	readPasswordFunc = term.ReadPassword // mockable
	isTerminalFunc   = term.IsTerminal
)

// readPassword prefers PATHWAY_ADMIN_PASSWORD. On a terminal it prompts
// twice without echo; otherwise it reads the first line of stdin.
func readPassword(stdin io.Reader, fd int) (string, error) {
	if p := os.Getenv("PATHWAY_ADMIN_PASSWORD"); p != "" {
		return p, nil
	}

	if !isTerminalFunc(fd) {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if err == nil {
				err = errors.New("empty password")
			}
			return "", fmt.Errorf("no password on stdin and PATHWAY_ADMIN_PASSWORD is not set: %w", err)
		}
		return line, nil
	}

	fmt.Fprint(os.Stderr, "Enter password:")
	first, err := readPasswordFunc(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Confirm password:")
	second, err := readPasswordFunc(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if len(first) == 0 {
		return "", errors.New("empty password")
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
