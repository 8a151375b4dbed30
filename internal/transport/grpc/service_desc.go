package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "tutora.v1.Tutora"

const (
	MethodSignIn              = "/" + ServiceName + "/SignIn"
	MethodSignOut             = "/" + ServiceName + "/SignOut"
	MethodSendPasswordReset   = "/" + ServiceName + "/SendPasswordReset"
	MethodResetPassword       = "/" + ServiceName + "/ResetPassword"
	MethodChangePassword      = "/" + ServiceName + "/ChangePassword"
	MethodCreateClient        = "/" + ServiceName + "/CreateClient"
	MethodUpdateClient        = "/" + ServiceName + "/UpdateClient"
	MethodGetClient           = "/" + ServiceName + "/GetClient"
	MethodListClients         = "/" + ServiceName + "/ListClients"
	MethodDeleteClient        = "/" + ServiceName + "/DeleteClient"
	MethodCreateService       = "/" + ServiceName + "/CreateService"
	MethodUpdateService       = "/" + ServiceName + "/UpdateService"
	MethodGetService          = "/" + ServiceName + "/GetService"
	MethodListServices        = "/" + ServiceName + "/ListServices"
	MethodDeleteService       = "/" + ServiceName + "/DeleteService"
	MethodSubmitBooking       = "/" + ServiceName + "/SubmitBooking"
	MethodGetAppointment      = "/" + ServiceName + "/GetAppointment"
	MethodListAppointments    = "/" + ServiceName + "/ListAppointments"
	MethodMarkClientPaid      = "/" + ServiceName + "/MarkClientPaid"
	MethodCloseAppointment    = "/" + ServiceName + "/CloseAppointment"
	MethodDeleteAppointment   = "/" + ServiceName + "/DeleteAppointment"
	MethodAddLedgerEntry      = "/" + ServiceName + "/AddLedgerEntry"
	MethodGetLedgerMonth      = "/" + ServiceName + "/GetLedgerMonth"
	MethodListUnpaidBalances  = "/" + ServiceName + "/ListUnpaidBalances"
	MethodSendBalanceReminder = "/" + ServiceName + "/SendBalanceReminder"
)

// TutoraServer is the server API of the tutora.v1.Tutora service.
type TutoraServer interface {
	SignIn(context.Context, *SignInRequest) (*SignInResponse, error)
	SignOut(context.Context, *Empty) (*Empty, error)
	SendPasswordReset(context.Context, *SendPasswordResetRequest) (*Empty, error)
	ResetPassword(context.Context, *ResetPasswordRequest) (*Empty, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*Empty, error)

	CreateClient(context.Context, *CreateClientRequest) (*ClientResponse, error)
	UpdateClient(context.Context, *UpdateClientRequest) (*ClientResponse, error)
	GetClient(context.Context, *ClientRequest) (*ClientResponse, error)
	ListClients(context.Context, *ListClientsRequest) (*ListClientsResponse, error)
	DeleteClient(context.Context, *ClientRequest) (*Empty, error)

	CreateService(context.Context, *CreateServiceRequest) (*ServiceResponse, error)
	UpdateService(context.Context, *UpdateServiceRequest) (*ServiceResponse, error)
	GetService(context.Context, *ServiceRequest) (*ServiceResponse, error)
	ListServices(context.Context, *Empty) (*ListServicesResponse, error)
	DeleteService(context.Context, *ServiceRequest) (*Empty, error)

	SubmitBooking(context.Context, *SubmitBookingRequest) (*SubmitBookingResponse, error)
	GetAppointment(context.Context, *AppointmentRequest) (*AppointmentResponse, error)
	ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
	MarkClientPaid(context.Context, *MarkClientPaidRequest) (*MarkClientPaidResponse, error)
	CloseAppointment(context.Context, *AppointmentRequest) (*AppointmentResponse, error)
	DeleteAppointment(context.Context, *AppointmentRequest) (*Empty, error)

	AddLedgerEntry(context.Context, *AddLedgerEntryRequest) (*AddLedgerEntryResponse, error)
	GetLedgerMonth(context.Context, *GetLedgerMonthRequest) (*LedgerMonthResponse, error)

	ListUnpaidBalances(context.Context, *Empty) (*ListUnpaidBalancesResponse, error)
	SendBalanceReminder(context.Context, *SendBalanceReminderRequest) (*SendBalanceReminderResponse, error)
}

// ServiceDesc describes tutora.v1.Tutora for grpc.ServiceRegistrar. Messages
// travel with the json codec.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TutoraServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("SignIn", TutoraServer.SignIn),
		unary("SignOut", TutoraServer.SignOut),
		unary("SendPasswordReset", TutoraServer.SendPasswordReset),
		unary("ResetPassword", TutoraServer.ResetPassword),
		unary("ChangePassword", TutoraServer.ChangePassword),
		unary("CreateClient", TutoraServer.CreateClient),
		unary("UpdateClient", TutoraServer.UpdateClient),
		unary("GetClient", TutoraServer.GetClient),
		unary("ListClients", TutoraServer.ListClients),
		unary("DeleteClient", TutoraServer.DeleteClient),
		unary("CreateService", TutoraServer.CreateService),
		unary("UpdateService", TutoraServer.UpdateService),
		unary("GetService", TutoraServer.GetService),
		unary("ListServices", TutoraServer.ListServices),
		unary("DeleteService", TutoraServer.DeleteService),
		unary("SubmitBooking", TutoraServer.SubmitBooking),
		unary("GetAppointment", TutoraServer.GetAppointment),
		unary("ListAppointments", TutoraServer.ListAppointments),
		unary("MarkClientPaid", TutoraServer.MarkClientPaid),
		unary("CloseAppointment", TutoraServer.CloseAppointment),
		unary("DeleteAppointment", TutoraServer.DeleteAppointment),
		unary("AddLedgerEntry", TutoraServer.AddLedgerEntry),
		unary("GetLedgerMonth", TutoraServer.GetLedgerMonth),
		unary("ListUnpaidBalances", TutoraServer.ListUnpaidBalances),
		unary("SendBalanceReminder", TutoraServer.SendBalanceReminder),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tutora/v1/tutora.proto",
}

func RegisterTutoraServer(s grpc.ServiceRegistrar, srv TutoraServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req, Resp any](name string, call func(TutoraServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TutoraServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TutoraServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Invoke calls a tutora.v1.Tutora method over conn with the json codec.
func Invoke(ctx context.Context, conn grpc.ClientConnInterface, method string, req, resp any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return conn.Invoke(ctx, method, req, resp, opts...)
}
