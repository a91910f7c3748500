package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/sdk/client"
)

const (
	// Change these values to match your environment
	serviceURL = "http://localhost:8080"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	student := client.NewClient(&client.Config{BaseURL: serviceURL, Timeout: 10 * time.Second})
	institute := client.NewClient(&client.Config{BaseURL: serviceURL, Timeout: 10 * time.Second})

	// Run the example
	if err := runExample(ctx, student, institute); err != nil {
		log.Fatalf("Error running example: %v", err)
	}
}

// runExample walks one application from submission to admission. The
// accounts come from a seeded database, see pathwayctl seed.
func runExample(ctx context.Context, student, institute *client.Client) error {
	fmt.Println("Running pathway SDK example...")

	// Step 1: Log both parties in
	fmt.Println("\n1. Logging in...")
	if _, err := student.Login(ctx, env("STUDENT_EMAIL", "grace@student.example"), os.Getenv("STUDENT_PASSWORD")); err != nil {
		return fmt.Errorf("student login: %w", err)
	}
	if _, err := institute.Login(ctx, env("INSTITUTE_EMAIL", "registrar@uni.example"), os.Getenv("INSTITUTE_PASSWORD")); err != nil {
		return fmt.Errorf("institute login: %w", err)
	}

	// Step 2: Find an open course
	fmt.Println("\n2. Listing open courses...")
	courses, total, err := student.ListOfferings(ctx, client.OfferingFilter{
		Kind:   model.OfferingCourse,
		Status: model.OfferingActive,
		Limit:  5,
	})
	if err != nil {
		return fmt.Errorf("listing offerings: %w", err)
	}
	if len(courses) == 0 {
		return errors.New("no open courses, seed the database first")
	}
	fmt.Printf("Found %d courses, applying to %q\n", total, courses[0].Title)

	// Step 3: Apply
	fmt.Println("\n3. Applying...")
	applied, err := student.Apply(ctx, courses[0].ID)
	switch {
	case client.IsCode(err, client.CodeAlreadyApplied):
		fmt.Println("Already applied, nothing to do")
		return nil
	case err != nil:
		return fmt.Errorf("applying: %w", err)
	}
	app := applied.Application
	fmt.Printf("Application %s is %s\n", app.ID, app.Status)

	// Step 4: The institute approves, passing the status it saw
	fmt.Println("\n4. Reviewing...")
	reviewed, err := institute.Review(ctx, app.ID, admission.EventApprove, app.Status)
	if err != nil {
		return fmt.Errorf("reviewing: %w", err)
	}
	fmt.Printf("Application is %s, student may now %v\n", reviewed.Application.Status, reviewed.AllowedEvents)

	// Step 5: Accepting with a stale status is refused
	fmt.Println("\n5. Responding with a stale status...")
	_, err = student.Respond(ctx, app.ID, admission.EventAccept, model.ApplicationPending)
	if !client.IsCode(err, client.CodeStaleState) {
		return fmt.Errorf("expected stale_state, got %v", err)
	}
	fmt.Println("Refused as expected:", err)

	// Step 6: Accept
	fmt.Println("\n6. Accepting...")
	accepted, err := student.Respond(ctx, app.ID, admission.EventAccept, reviewed.Application.Status)
	if err != nil {
		return fmt.Errorf("accepting: %w", err)
	}
	fmt.Printf("Application is %s\n", accepted.Application.Status)

	// Step 7: Counts and notifications
	fmt.Println("\n7. Summary...")
	summary, err := institute.Summary(ctx)
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	fmt.Printf("Institute has %d applications: %v\n", summary.Total, summary.ByStatus)

	_, unread, err := student.Notifications(ctx, true)
	if err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	fmt.Printf("Student has %d unread notifications\n", unread)

	fmt.Println("\nExample completed successfully!")
	return nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
