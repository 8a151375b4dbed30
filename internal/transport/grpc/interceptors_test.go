package grpc

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"tutora/backend/internal/auth"
	"tutora/backend/internal/domain"
	"tutora/backend/internal/observability/metrics"
)

func passthrough(ctx context.Context, req any) (any, error) {
	return auth.SessionFrom(ctx), nil
}

func TestAuthInterceptor_RejectsMissingToken(t *testing.T) {
	intercept := AuthInterceptor(&fakeAuth{}, slog.Default())

	_, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: MethodListClients}, passthrough)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.Unauthenticated)
	}
}

func TestAuthInterceptor_PublicMethodSkipsAuth(t *testing.T) {
	intercept := AuthInterceptor(&fakeAuth{}, slog.Default())

	got, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: MethodSignIn}, passthrough)
	if err != nil {
		t.Fatalf("intercept error: %v", err)
	}
	if got.(*domain.Session) != nil {
		t.Fatalf("session = %+v, want nil", got)
	}
}

func TestAuthInterceptor_OtherServicesPassThrough(t *testing.T) {
	intercept := AuthInterceptor(&fakeAuth{}, slog.Default())

	if _, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, passthrough); err != nil {
		t.Fatalf("intercept error: %v", err)
	}
}

func TestAuthInterceptor_StoresSession(t *testing.T) {
	var gotToken string
	intercept := AuthInterceptor(&fakeAuth{
		authenticateFn: func(ctx context.Context, token string) (*domain.Session, error) {
			gotToken = token
			return testSession(), nil
		},
	}, slog.Default())

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "bearer tok-1"))
	got, err := intercept(ctx, nil, &grpc.UnaryServerInfo{FullMethod: MethodListClients}, passthrough)
	if err != nil {
		t.Fatalf("intercept error: %v", err)
	}
	if gotToken != "tok-1" {
		t.Fatalf("token = %q, want %q", gotToken, "tok-1")
	}
	if sess := got.(*domain.Session); sess == nil || sess.ID != "sess-1" {
		t.Fatalf("session = %+v", sess)
	}
}

func TestAuthInterceptor_MapsExpiredSession(t *testing.T) {
	intercept := AuthInterceptor(&fakeAuth{
		authenticateFn: func(ctx context.Context, token string) (*domain.Session, error) {
			return nil, auth.ErrSessionExpired
		},
	}, slog.Default())

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer old"))
	_, err := intercept(ctx, nil, &grpc.UnaryServerInfo{FullMethod: MethodListClients}, passthrough)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.Unauthenticated)
	}
}

func TestRequestTimeoutInterceptor_SetsDeadline(t *testing.T) {
	intercept := RequestTimeoutInterceptor(time.Second)

	_, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Fatalf("expected a deadline")
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("intercept error: %v", err)
	}
}

func TestRecoveryInterceptor_ConvertsPanic(t *testing.T) {
	intercept := RecoveryInterceptor(slog.Default())

	_, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: MethodGetClient}, func(ctx context.Context, req any) (any, error) {
		panic("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.Internal)
	}
}

func dialTutora(t *testing.T, svc Services, authn Authenticator) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoveryInterceptor(slog.Default()),
		MetricsInterceptor(metrics.NewRPCMetrics(prometheus.NewRegistry())),
		AuthInterceptor(authn, slog.Default()),
	))
	RegisterTutoraServer(srv, NewServer(svc, slog.Default()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestTutoraService_OverJSONCodec(t *testing.T) {
	expires := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	fa := &fakeAuth{
		signInFn: func(ctx context.Context, email, password string) (auth.SignInResult, error) {
			sess := *testSession()
			sess.ExpiresAt = expires
			return auth.SignInResult{Token: "tok-1", Session: sess}, nil
		},
		authenticateFn: func(ctx context.Context, token string) (*domain.Session, error) {
			if token != "tok-1" {
				return nil, auth.ErrUnauthenticated
			}
			return testSession(), nil
		},
	}
	conn := dialTutora(t, Services{
		Auth: fa,
		Booking: &fakeBooking{
			listFn: func(ctx context.Context, sess *domain.Session, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
				return []domain.Appointment{{ID: apptID, DateFrom: windowStart, DateTo: windowStart.Add(time.Hour)}}, nil
			},
		},
	}, fa)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var signIn SignInResponse
	if err := Invoke(ctx, conn, MethodSignIn, &SignInRequest{Email: "admin@example.com", Password: "secret-pass"}, &signIn); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if signIn.Token != "tok-1" || !signIn.ExpiresAt.Equal(expires) {
		t.Fatalf("SignIn response = %+v", signIn)
	}

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	req := &ListAppointmentsRequest{WindowStart: &start, WindowEnd: &end}

	var list ListAppointmentsResponse
	err := Invoke(ctx, conn, MethodListAppointments, req, &list)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code without token = %s, want %s", status.Code(err), codes.Unauthenticated)
	}

	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+signIn.Token)
	if err := Invoke(authed, conn, MethodListAppointments, req, &list); err != nil {
		t.Fatalf("ListAppointments: %v", err)
	}
	if len(list.Appointments) != 1 || list.Appointments[0].ID != apptID {
		t.Fatalf("appointments = %+v", list.Appointments)
	}
}
