package grpc

import (
	"context"
	"log/slog"

	"tutora/backend/internal/auth"
	"tutora/backend/internal/domain"
	"tutora/backend/internal/service/catalog"
)

func clientInput(f ClientFields) (catalog.ClientInput, error) {
	id, err := parseOptionalID("client.id", f.ID)
	if err != nil {
		return catalog.ClientInput{}, err
	}
	return catalog.ClientInput{
		ID:                  id,
		FirstName:           f.FirstName,
		LastName:            f.LastName,
		PhoneNumber:         f.PhoneNumber,
		MailAddress:         f.MailAddress,
		RelativeName:        f.RelativeName,
		RelativePhoneNumber: f.RelativePhoneNumber,
		ClientType:          f.ClientType,
	}, nil
}

func serviceInput(f ServiceFields) (catalog.ServiceInput, error) {
	id, err := parseOptionalID("service.id", f.ID)
	if err != nil {
		return catalog.ServiceInput{}, err
	}
	return catalog.ServiceInput{
		ID:              id,
		Name:            f.Name,
		Description:     f.Description,
		DurationMinutes: f.DurationMinutes,
		SessionPrice:    f.SessionPrice,
		Capacity:        f.StudentNumber,
		AvailableDays:   f.AvailableDays,
	}, nil
}

func (s *Server) CreateClient(ctx context.Context, req *CreateClientRequest) (*ClientResponse, error) {
	log := s.rpcLog("CreateClient")

	in, err := clientInput(req.Client)
	if err != nil {
		return nil, err
	}
	c, err := s.catalog.CreateClient(ctx, auth.SessionFrom(ctx), in)
	if err != nil {
		return nil, toStatus(log, err)
	}
	log.Info("client created", slog.String("client_id", c.ID.String()))
	return &ClientResponse{Client: c}, nil
}

func (s *Server) UpdateClient(ctx context.Context, req *UpdateClientRequest) (*ClientResponse, error) {
	log := s.rpcLog("UpdateClient")

	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	in, err := clientInput(req.Client)
	if err != nil {
		return nil, err
	}
	c, err := s.catalog.UpdateClient(ctx, auth.SessionFrom(ctx), id, in)
	if err != nil {
		return nil, toStatus(log.With(slog.String("client_id", id.String())), err)
	}
	return &ClientResponse{Client: c}, nil
}

func (s *Server) GetClient(ctx context.Context, req *ClientRequest) (*ClientResponse, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	c, err := s.catalog.GetClient(ctx, auth.SessionFrom(ctx), id)
	if err != nil {
		return nil, toStatus(s.rpcLog("GetClient"), err)
	}
	return &ClientResponse{Client: c}, nil
}

func (s *Server) ListClients(ctx context.Context, req *ListClientsRequest) (*ListClientsResponse, error) {
	rows, err := s.catalog.ListClients(ctx, auth.SessionFrom(ctx), req.PhoneNumber)
	if err != nil {
		return nil, toStatus(s.rpcLog("ListClients"), err)
	}
	if rows == nil {
		rows = []domain.Client{}
	}
	return &ListClientsResponse{Clients: rows}, nil
}

func (s *Server) DeleteClient(ctx context.Context, req *ClientRequest) (*Empty, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.DeleteClient(ctx, auth.SessionFrom(ctx), id); err != nil {
		return nil, toStatus(s.rpcLog("DeleteClient"), err)
	}
	return &Empty{}, nil
}

func (s *Server) CreateService(ctx context.Context, req *CreateServiceRequest) (*ServiceResponse, error) {
	log := s.rpcLog("CreateService")

	in, err := serviceInput(req.Service)
	if err != nil {
		return nil, err
	}
	svc, err := s.catalog.CreateService(ctx, auth.SessionFrom(ctx), in)
	if err != nil {
		return nil, toStatus(log, err)
	}
	log.Info("service created", slog.String("service_id", svc.ID.String()))
	return &ServiceResponse{Service: svc}, nil
}

func (s *Server) UpdateService(ctx context.Context, req *UpdateServiceRequest) (*ServiceResponse, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	in, err := serviceInput(req.Service)
	if err != nil {
		return nil, err
	}
	svc, err := s.catalog.UpdateService(ctx, auth.SessionFrom(ctx), id, in)
	if err != nil {
		return nil, toStatus(s.rpcLog("UpdateService").With(slog.String("service_id", id.String())), err)
	}
	return &ServiceResponse{Service: svc}, nil
}

func (s *Server) GetService(ctx context.Context, req *ServiceRequest) (*ServiceResponse, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	svc, err := s.catalog.GetService(ctx, auth.SessionFrom(ctx), id)
	if err != nil {
		return nil, toStatus(s.rpcLog("GetService"), err)
	}
	return &ServiceResponse{Service: svc}, nil
}

func (s *Server) ListServices(ctx context.Context, _ *Empty) (*ListServicesResponse, error) {
	rows, err := s.catalog.ListServices(ctx, auth.SessionFrom(ctx))
	if err != nil {
		return nil, toStatus(s.rpcLog("ListServices"), err)
	}
	if rows == nil {
		rows = []domain.Service{}
	}
	return &ListServicesResponse{Services: rows}, nil
}

func (s *Server) DeleteService(ctx context.Context, req *ServiceRequest) (*Empty, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.DeleteService(ctx, auth.SessionFrom(ctx), id); err != nil {
		return nil, toStatus(s.rpcLog("DeleteService"), err)
	}
	return &Empty{}, nil
}
