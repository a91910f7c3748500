package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/email"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/service"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout accepted by pathwayctl seed.
//
//	accounts:
//	  - email: registrar@uni.example
//	    first_name: Ada
//	    role: institute
//	    organization: Example University
//	    password: "..."
//	    offerings:
//	      - title: BSc Computer Science
//	        deadline: 2027-01-31T00:00:00Z
type seedFile struct {
	Accounts []seedAccount `yaml:"accounts"`
}

type seedAccount struct {
	Email        string         `yaml:"email"`
	FirstName    string         `yaml:"first_name"`
	LastName     string         `yaml:"last_name"`
	Phone        string         `yaml:"phone"`
	Role         model.Role     `yaml:"role"`
	Organization string         `yaml:"organization"`
	Location     string         `yaml:"location"`
	Password     string         `yaml:"password"`
	Offerings    []seedOffering `yaml:"offerings"`
}

type seedOffering struct {
	Title          string     `yaml:"title"`
	Description    string     `yaml:"description"`
	ProgramType    string     `yaml:"program_type"`
	AcademicLevel  string     `yaml:"academic_level"`
	Faculty        string     `yaml:"faculty"`
	Duration       string     `yaml:"duration"`
	Intake         int        `yaml:"intake"`
	JobType        string     `yaml:"job_type"`
	Location       string     `yaml:"location"`
	Salary         string     `yaml:"salary"`
	Requirements   []string   `yaml:"requirements"`
	Qualifications []string   `yaml:"qualifications"`
	Deadline       *time.Time `yaml:"deadline"`
}

func (o seedOffering) input() service.OfferingInput {
	return service.OfferingInput{
		Title:          o.Title,
		Description:    o.Description,
		ProgramType:    o.ProgramType,
		AcademicLevel:  o.AcademicLevel,
		Faculty:        o.Faculty,
		Duration:       o.Duration,
		Intake:         o.Intake,
		JobType:        o.JobType,
		Location:       o.Location,
		Salary:         o.Salary,
		Requirements:   o.Requirements,
		Qualifications: o.Qualifications,
		Deadline:       o.Deadline,
	}
}

// parseSeed decodes and checks a seed file. Unknown keys are rejected so a
// typo does not silently drop data.
func parseSeed(r io.Reader) (*seedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed seedFile
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}

	emails := make(map[string]bool)
	for i, acct := range seed.Accounts {
		if acct.Email == "" {
			return nil, fmt.Errorf("account %d: email is required", i)
		}
		if emails[acct.Email] {
			return nil, fmt.Errorf("account %s: listed twice", acct.Email)
		}
		emails[acct.Email] = true

		switch acct.Role {
		case model.RoleStudent:
			if len(acct.Offerings) > 0 {
				return nil, fmt.Errorf("account %s: students cannot publish offerings", acct.Email)
			}
		case model.RoleInstitute, model.RoleCompany:
			if acct.Organization == "" {
				return nil, fmt.Errorf("account %s: organization is required for %s accounts", acct.Email, acct.Role)
			}
		default:
			return nil, fmt.Errorf("account %s: unsupported role %q", acct.Email, acct.Role)
		}
	}
	return &seed, nil
}

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Create verified accounts and offerings from a YAML file",
	Long:  `Seed signs up every account in the file, marks it verified and publishes its offerings. Accounts whose email already exists are skipped.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(args[0])
		if err != nil {
			log.Fatalf("Error opening seed file: %v", err)
		}
		defer f.Close()

		seed, err := parseSeed(f)
		if err != nil {
			log.Fatalf("Error reading seed file: %v", err)
		}

		cfg := loadConfig()
		svc := newServices(cfg, openGorm(cfg), email.ProviderLog)
		defer svc.close()

		ctx := context.Background()
		var created, skipped, offerings int
		for _, acct := range seed.Accounts {
			n, err := seedAccountWith(ctx, svc, acct)
			if errors.Is(err, domain.ErrEmailAlreadyExists) {
				fmt.Printf("skipped  %s (exists)\n", acct.Email)
				skipped++
				continue
			}
			if err != nil {
				log.Fatalf("Error seeding %s: %v", acct.Email, err)
			}
			fmt.Printf("created  %s (%s, %d offerings)\n", acct.Email, acct.Role, n)
			created++
			offerings += n
		}

		fmt.Printf("\n%d accounts created, %d skipped, %d offerings published\n", created, skipped, offerings)
	},
}

func seedAccountWith(ctx context.Context, svc *services, acct seedAccount) (int, error) {
	out, err := svc.users.Signup(ctx, service.SignupInput{
		Email:            acct.Email,
		FirstName:        acct.FirstName,
		LastName:         acct.LastName,
		Phone:            acct.Phone,
		Role:             acct.Role,
		OrganizationName: acct.Organization,
		Location:         acct.Location,
		Password:         acct.Password,
		ConfirmPassword:  acct.Password,
	})
	if err != nil {
		return 0, err
	}

	user, err := svc.users.SetStatus(ctx, out.User.ID, model.StatusActive)
	if err != nil {
		return 0, fmt.Errorf("verifying account: %w", err)
	}

	actor := admission.ActorFromUser(user)
	for _, o := range acct.Offerings {
		if _, err := svc.offerings.Create(ctx, actor, o.input()); err != nil {
			return 0, fmt.Errorf("publishing %q: %w", o.Title, err)
		}
	}
	return len(acct.Offerings), nil
}
