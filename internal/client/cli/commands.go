package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/oclus/internal/client/api"
	"github.com/dmitrijs2005/oclus/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errNotLoggedIn = errors.New("log in first")

func (a *App) ask(prompt string) (string, error) {
	return getSimpleText(a.reader, prompt, a.out)
}

// Register starts sign-up; the server mails a code to confirm with.
func (a *App) Register(ctx context.Context) error {
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}

	id, err := a.api.Register(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return fmt.Errorf("email is already registered")
		}
		return err
	}

	fmt.Fprintf(a.out, "Registration request %d created. Check your mail for the code, then run confirm.\n", id)
	return nil
}

func (a *App) Confirm(ctx context.Context) error {
	rawID, err := a.ask("Enter registration request id")
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid request id %q", rawID)
	}
	code, err := a.ask("Enter code")
	if err != nil {
		return err
	}
	username, err := a.ask("Choose a username")
	if err != nil {
		return err
	}
	password, err := getPassword("Choose a password", a.out)
	if err != nil {
		return err
	}

	profile, err := a.api.Confirm(ctx, id, code, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s! You can log in now.\n", profile.Username)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	if err := a.api.Login(ctx, email, password); err != nil {
		if errors.Is(err, common.ErrorRateLimited) {
			return fmt.Errorf("too many failed attempts, try again later")
		}
		return err
	}
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if err := a.api.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Tokens refreshed")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	p, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	printProfile(a, p)
	return nil
}

func (a *App) User(ctx context.Context, id string) error {
	p, err := a.api.User(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "id: %s\nusername: %s\n", p.ID, p.Username)
	return nil
}

// Update changes email and/or username; empty answers keep the old value.
func (a *App) Update(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	email, err := a.ask("New email (empty to keep)")
	if err != nil {
		return err
	}
	username, err := a.ask("New username (empty to keep)")
	if err != nil {
		return err
	}
	if email == "" && username == "" {
		return fmt.Errorf("nothing to update")
	}
	password, err := getPassword("Confirm with your password", a.out)
	if err != nil {
		return err
	}

	p, err := a.api.UpdateMe(ctx, password, optional(email), optional(username))
	if err != nil {
		return err
	}
	printProfile(a, p)
	return nil
}

func (a *App) Passwd(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	current, err := getPassword("Current password", a.out)
	if err != nil {
		return err
	}
	next, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}
	again, err := getPassword("Repeat new password", a.out)
	if err != nil {
		return err
	}
	if next != again {
		return fmt.Errorf("passwords do not match")
	}

	if err := a.api.ChangePassword(ctx, current, next); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed. Log in again.")
	return nil
}

func (a *App) Delete(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	answer, err := a.ask("Delete your account? Type yes to confirm")
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}
	password, err := getPassword("Confirm with your password", a.out)
	if err != nil {
		return err
	}

	if err := a.api.DeleteMe(ctx, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Account deleted")
	return nil
}

func (a *App) GroupCreate(ctx context.Context) error {
	name, err := a.ask("Group name")
	if err != nil {
		return err
	}
	g, err := a.api.CreateGroup(ctx, name)
	if err != nil {
		return err
	}
	printGroup(a, g)
	return nil
}

func (a *App) Group(ctx context.Context, rawID string) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid group id %q", rawID)
	}
	g, err := a.api.Group(ctx, id)
	if err != nil {
		return err
	}
	printGroup(a, g)
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func printProfile(a *App, p *api.Profile) {
	fmt.Fprintf(a.out, "id: %s\nemail: %s\nusername: %s\nregistered: %s\n",
		p.ID, p.Email, p.Username, p.RegisteredOn.Format("2006-01-02 15:04"))
}

func printGroup(a *App, g *api.Group) {
	if g.OwnerID == "" {
		fmt.Fprintf(a.out, "name: %s\n", g.Name)
		return
	}
	fmt.Fprintf(a.out, "id: %d\nname: %s\nowner: %s\n", g.ID, g.Name, g.OwnerID)
}
