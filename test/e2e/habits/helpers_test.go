package habits_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/habits/pkg/habitsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for habits service end-to-end tests.
 * This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "habits-test:latest"

	adminUsername = "admin"
	adminPassword = "Admin123!"
	userPassword  = "User123!"
)

// TestMain builds the Docker image once before all tests and cleans it up
// after all tests complete. The suite only runs with HABITS_E2E=1.
func TestMain(m *testing.M) {
	if os.Getenv("HABITS_E2E") != "1" {
		fmt.Fprintln(os.Stdout, "skipping e2e tests, set HABITS_E2E=1 to run them")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building Habits Service Docker image...")

	// Build the Docker image once before all tests
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	// Run all tests
	exitCode := m.Run()

	// Clean up the Docker image after all tests complete
	fmt.Fprintf(os.Stdout, "Cleaning up Habits Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

// buildDockerImage builds the test Docker image.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/habits/Dockerfile",
		"../../../")
	cmd.Dir = "." // Ensure we're in the test directory
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

// cleanupDockerImage removes the test Docker image.
func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// testEnv is the container environment. Rate limits are raised because
// tests make many rapid requests.
func testEnv() map[string]string {
	return map[string]string{
		"ENV":                         "test",
		"LOG_LEVEL":                   "info",
		"LOG_FORMAT":                  "json",
		"JWT_SECRET":                  "e2e-secret-that-is-at-least-32-bytes-long",
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
		"RATELIMIT_LENIENT_REQUESTS":  "1000",
		"RATELIMIT_LENIENT_BURST":     "1000",
	}
}

// setupHabitsContainer starts the service in a container and returns the
// container and its base URL.
func setupHabitsContainer(t *testing.T, env map[string]string) (testcontainers.Container, string) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return container, fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

// createAdmin runs the create-admin command inside the container.
func createAdmin(t *testing.T, container testcontainers.Container) {
	t.Helper()

	code, out, err := container.Exec(context.Background(),
		[]string{"habits", "create-admin", adminUsername, "--password", adminPassword},
		tcexec.Multiplexed(),
	)
	require.NoError(t, err)

	output, _ := io.ReadAll(out)
	require.Equal(t, 0, code, "create-admin failed: %s", output)
}

// adminSession starts a container with an admin account and logs in.
func adminSession(t *testing.T) (*habitsdk.Client, *habitsdk.Session) {
	t.Helper()

	container, baseURL := setupHabitsContainer(t, testEnv())
	createAdmin(t, container)

	client := habitsdk.NewClient(baseURL)
	session, err := client.Login(t.Context(), adminUsername, adminPassword)
	require.NoError(t, err)
	require.True(t, session.User.IsAdmin)

	return client, session
}

// registerAndLogin creates a regular user and returns its session.
func registerAndLogin(t *testing.T, client *habitsdk.Client, username string) *habitsdk.Session {
	t.Helper()

	_, err := client.Register(t.Context(), username, userPassword)
	require.NoError(t, err)

	session, err := client.Login(t.Context(), username, userPassword)
	require.NoError(t, err)
	return session
}

func assertHealthy(t *testing.T, health *habitsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
	require.NotEmpty(t, health.Uptime)
	require.NotEmpty(t, health.Version)
}

func requireAPIError(t *testing.T, err error, status int, code string) *habitsdk.APIError {
	t.Helper()
	var apiErr *habitsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

func ptr[T any](v T) *T { return &v }
