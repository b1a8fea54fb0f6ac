package cli

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/binhbb2204/GameShelf/internal/grpcserver"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const probeTimeout = 3 * time.Second

type healthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	Uptime        string `json:"uptime"`
	RealtimeUsers *int   `json:"realtime_users"`
}

type readyResponse struct {
	Status string `json:"status"`
	Cache  string `json:"cache"`
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Check the GameShelf server",
	Long:  `Probe the HTTP health endpoints and the gRPC health service of the configured server.`,
}

var serverStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server health and readiness",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := clientFromConfig(false)
		if err != nil {
			return err
		}
		client := newAPIClient(cfg.ServerURL(), "")

		printHeader("Server: " + cfg.ServerURL())

		health, err := fetchHealth(client)
		if err != nil {
			printError("HTTP API unreachable: " + err.Error())
			return fmt.Errorf("server unavailable")
		}
		printSuccess(fmt.Sprintf("HTTP API online (%s, up %s)", health.Service, health.Uptime))
		if health.RealtimeUsers != nil {
			fmt.Printf("  Realtime users: %d\n", *health.RealtimeUsers)
		}

		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		var ready readyResponse
		if err := client.get(ctx, "/readyz", nil, &ready); err != nil {
			printError("Not ready: " + err.Error())
		} else {
			printSuccess("Database ready")
			if ready.Cache != "" {
				fmt.Printf("  Cache: %s\n", ready.Cache)
			}
		}

		grpcAddr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.GRPCPort))
		status, err := checkGRPCHealth(grpcAddr, grpcserver.ServiceName)
		if err != nil {
			printInfo(fmt.Sprintf("gRPC health (%s): unavailable (%s)", grpcAddr, err))
			return nil
		}
		if status == healthpb.HealthCheckResponse_SERVING {
			printSuccess(fmt.Sprintf("gRPC %s serving on %s", grpcserver.ServiceName, grpcAddr))
		} else {
			printError(fmt.Sprintf("gRPC %s reports %s", grpcserver.ServiceName, status))
		}
		return nil
	},
}

func fetchHealth(client *apiClient) (*healthResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	var health healthResponse
	if err := client.get(ctx, "/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

func checkGRPCHealth(addr, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	res, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return res.GetStatus(), nil
}

func init() {
	serverCmd.AddCommand(serverStatusCmd)
}
