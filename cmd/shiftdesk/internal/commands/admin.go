package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfeidau/shiftdesk/internal/models"
	"github.com/wolfeidau/shiftdesk/internal/service"
)

type OrgsCmd struct {
	List   OrgsListCmd   `cmd:"" default:"1" help:"List organizations"`
	Create OrgsCreateCmd `cmd:"" help:"Create an organization and its first admin"`
}

type OrgsListCmd struct{}

func (o *OrgsListCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	out := globals.out()
	orgs := app.Service.View().Organizations
	if len(orgs) == 0 {
		fmt.Fprintln(out, "No organizations visible.")
		return nil
	}

	fmt.Fprintf(out, "%-24s %-36s %-8s %-20s\n", "ID", "Name", "Active", "Created")
	fmt.Fprintln(out, strings.Repeat("─", 92))
	for _, org := range orgs {
		fmt.Fprintf(out, "%-24s %-36s %-8t %-20s\n",
			truncate(org.ID, 24), truncate(org.Name, 36), org.IsActive, org.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

type OrgsCreateCmd struct {
	Name          string `arg:"" help:"organization name"`
	AdminUsername string `help:"username of the first admin" required:""`
	AdminPassword string `help:"password of the first admin" env:"SHIFTDESK_ADMIN_PASSWORD" required:""`
	AdminFullName string `help:"full name of the first admin" default:""`
}

func (o *OrgsCreateCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	org, admin, res, err := app.Service.CreateOrganization(ctx, service.OrganizationRequest{
		Name:          o.Name,
		AdminUsername: o.AdminUsername,
		AdminPassword: o.AdminPassword,
		AdminFullName: o.AdminFullName,
	})
	if err := check("create organization", res, err); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Created organization %s (%s) with admin %s (%s)\n", org.Name, org.ID, admin.Username, admin.ID)
	return nil
}

type UsersCmd struct {
	List          UsersListCmd          `cmd:"" default:"1" help:"List users"`
	Create        UsersCreateCmd        `cmd:"" help:"Create a user in your organization"`
	ResetPassword UsersResetPasswordCmd `cmd:"" help:"Reset a user's password"`
}

type UsersListCmd struct{}

func (u *UsersListCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	out := globals.out()
	users := app.Service.View().Users
	if len(users) == 0 {
		fmt.Fprintln(out, "No users visible.")
		return nil
	}

	fmt.Fprintf(out, "%-24s %-16s %-28s %-12s %-24s\n", "ID", "Username", "Name", "Role", "Organization")
	fmt.Fprintln(out, strings.Repeat("─", 108))
	for _, user := range users {
		fmt.Fprintf(out, "%-24s %-16s %-28s %-12s %-24s\n",
			truncate(user.ID, 24), truncate(user.Username, 16), truncate(user.FullName, 28), user.Role, truncate(user.OrganizationID, 24))
	}
	return nil
}

type UsersCreateCmd struct {
	Username string `arg:"" help:"username"`
	FullName string `help:"full name" required:""`
	Password string `help:"password" env:"SHIFTDESK_USER_PASSWORD" required:""`
	Role     string `help:"role" default:"ANALYST" enum:"ADMIN,ANALYST"`
}

func (u *UsersCreateCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	user, res, err := app.Service.CreateUser(ctx, service.UserRequest{
		FullName: u.FullName,
		Username: u.Username,
		Password: u.Password,
		Role:     models.Role(u.Role),
	})
	if err := check("create user", res, err); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Created user %s (%s)\n", user.Username, user.ID)
	return nil
}

type UsersResetPasswordCmd struct {
	UserID   string `arg:"" help:"ID of the user"`
	Password string `help:"new password" env:"SHIFTDESK_USER_PASSWORD" required:""`
}

func (u *UsersResetPasswordCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Service.ResetUserPassword(ctx, u.UserID, u.Password)
	if err := check("reset password", res, err); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Password reset for %s\n", u.UserID)
	return nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
