package cli

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"atspro/internal/ats"
	"atspro/internal/auth"
	"atspro/internal/models"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

const (
	roleLabelSeeker = "Job seeker"
	roleLabelHR     = "HR professional"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account interactively",
	Long: `Create a job seeker or HR account. Values passed as flags are used as
given; anything missing is asked for. The password is always asked for and
must reach the same strength as on the signup form.`,
	Args: cobra.NoArgs,
	RunE: runUserCreate,
}

var userCreateConfig struct {
	Email    string
	FullName string
	Role     string
	Company  string
}

func init() {
	userCreateCmd.Flags().StringVar(&userCreateConfig.Email, "email", "", "Email address")
	userCreateCmd.Flags().StringVar(&userCreateConfig.FullName, "name", "", "Full name")
	userCreateCmd.Flags().StringVar(&userCreateConfig.Role, "role", "", "Role: job_seeker or hr")
	userCreateCmd.Flags().StringVar(&userCreateConfig.Company, "company", "", "Company name (HR accounts)")
	userCmd.AddCommand(userCreateCmd)
}

func validateEmail(input string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(input)); err != nil {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

func validateRequired(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("this field is required")
	}
	return nil
}

func validatePassword(input string) error {
	score := auth.PasswordStrength(input)
	if score < auth.MinStrength {
		return fmt.Errorf("password strength %s, %s", auth.StrengthLabel(score), ats.MsgWeakPassword)
	}
	return nil
}

// ask prompts for value unless it was already given.
func ask(value *string, label string, validate promptui.ValidateFunc) error {
	if *value != "" {
		return validate(*value)
	}
	p := promptui.Prompt{Label: label, Validate: validate}
	result, err := p.Run()
	if err != nil {
		return err
	}
	*value = strings.TrimSpace(result)
	return nil
}

func askRole(value string) (models.UserRole, error) {
	if value != "" {
		role := models.UserRole(value)
		if !role.Valid() {
			return "", fmt.Errorf("unknown role %q (use job_seeker or hr)", value)
		}
		return role, nil
	}

	rolePrompt := promptui.Select{
		Label: "Account type",
		Items: []string{roleLabelSeeker, roleLabelHR},
	}
	_, selected, err := rolePrompt.Run()
	if err != nil {
		return "", err
	}
	if selected == roleLabelHR {
		return models.RoleHR, nil
	}
	return models.RoleJobSeeker, nil
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	req := ats.SignupRequest{
		Email:       userCreateConfig.Email,
		FullName:    userCreateConfig.FullName,
		CompanyName: userCreateConfig.Company,
	}
	if err := ask(&req.Email, "Email", validateEmail); err != nil {
		return err
	}
	if err := ask(&req.FullName, "Full name", validateRequired); err != nil {
		return err
	}
	if req.Role, err = askRole(userCreateConfig.Role); err != nil {
		return err
	}
	if req.Role == models.RoleHR {
		if err := ask(&req.CompanyName, "Company name", validateRequired); err != nil {
			return err
		}
	}

	password := promptui.Prompt{Label: "Password", Mask: '*', Validate: validatePassword}
	if req.Password, err = password.Run(); err != nil {
		return err
	}
	confirm := promptui.Prompt{
		Label: "Confirm password",
		Mask:  '*',
		Validate: func(input string) error {
			if input != req.Password {
				return errors.New(ats.MsgPasswordMismatch)
			}
			return nil
		},
	}
	if req.ConfirmPassword, err = confirm.Run(); err != nil {
		return err
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.ats.Signup(cmd.Context(), req, &ats.Actor{IPAddress: "127.0.0.1", UserAgent: "atspro-cli/" + Version})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s account %s (%s)\n", res.User.Role, res.User.Email, res.User.ID)
	return nil
}
