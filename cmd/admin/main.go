package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dnoice/roachtrack/internal/config"
	"github.com/dnoice/roachtrack/internal/db"
	"github.com/dnoice/roachtrack/internal/db/repository"
)

var (
	configPath string
	cfg        *config.Config
	database   *db.DB
)

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "RoachTrack administration tool",
	Long:  "Administrative tool for managing RoachTrack users and audit logs",
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	RunE:  createUser,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE:  listUsers,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent audit log entries",
	RunE:  showAudit,
}

var (
	username string
	email    string
	password string
	role     string
	fullName string

	auditUsername string
	auditEvent    string
	auditLimit    int
	listRole      string
)

func init() {
	// Root flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")

	// User create flags
	userCreateCmd.Flags().StringVarP(&username, "username", "u", "", "Username (required)")
	userCreateCmd.Flags().StringVarP(&email, "email", "e", "", "Email address (required)")
	userCreateCmd.Flags().StringVarP(&password, "password", "p", "", "Password (required)")
	userCreateCmd.Flags().StringVarP(&role, "role", "r", "resident", "Role: admin, resident, or property_manager")
	userCreateCmd.Flags().StringVar(&fullName, "full-name", "", "Full name")

	userCreateCmd.MarkFlagRequired("username")
	userCreateCmd.MarkFlagRequired("email")
	userCreateCmd.MarkFlagRequired("password")

	// User list flags
	userListCmd.Flags().StringVar(&listRole, "role", "", "Filter by role")

	// Audit flags
	auditCmd.Flags().StringVar(&auditUsername, "username", "", "Filter by username")
	auditCmd.Flags().StringVar(&auditEvent, "event", "", "Filter by event type")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "Maximum entries to show")

	// Add commands
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(auditCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initDB() error {
	// Load configuration
	var err error
	cfg, err = config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Connect to database and apply migrations
	database, err = db.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func createUser(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	userRepo := repository.NewUserRepository(database.DB, cfg.Auth.BcryptCost)
	id, err := userRepo.Create(repository.CreateUserParams{
		Username: username,
		Email:    email,
		Password: password,
		Role:     role,
		FullName: fullName,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("\nUser created successfully!\n")
	fmt.Printf("User ID: %d\n", id)
	fmt.Printf("Username: %s\n", username)
	fmt.Printf("Role: %s\n", role)

	return nil
}

func listUsers(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	userRepo := repository.NewUserRepository(database.DB, cfg.Auth.BcryptCost)
	users, err := userRepo.List(listRole)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found")
		return nil
	}

	fmt.Printf("\nTotal users: %d\n\n", len(users))
	fmt.Printf("%-5s %-20s %-30s %-18s %-8s %s\n", "ID", "Username", "Email", "Role", "Active", "Created")
	fmt.Println("--------------------------------------------------------------------------------------------")

	for _, user := range users {
		activeStr := "No"
		if user.IsActive {
			activeStr = "Yes"
		}
		fmt.Printf("%-5d %-20s %-30s %-18s %-8s %s\n",
			user.ID,
			user.Username,
			user.Email,
			user.Role,
			activeStr,
			user.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}

	return nil
}

func showAudit(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	auditRepo := repository.NewAuditRepository(database.DB)
	entries, err := auditRepo.List(auditUsername, auditEvent, auditLimit)
	if err != nil {
		return fmt.Errorf("failed to list audit log: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No audit entries found")
		return nil
	}

	for _, e := range entries {
		status := "OK"
		if !e.Success {
			status = "FAILED"
		}
		fmt.Printf("%s  %-22s %-20s %-15s %-6s %s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.EventType,
			e.Username,
			e.IPAddress,
			status,
			e.Details,
		)
	}

	return nil
}
