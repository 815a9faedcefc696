package jsonrpc

import (
	"net/http"
	"time"

	"github.com/gorilla/rpc"
	"github.com/gorilla/rpc/json"
	"github.com/sirupsen/logrus"

	"github.com/TheusHen/rendezvous/rdv/directory"
	"github.com/TheusHen/rendezvous/rdv/internal/logutil"
	"github.com/TheusHen/rendezvous/rdv/metrics"
)

// Service exposes a directory.Directory as the "directory" RPC service.
// It is meant for local development and tests.
type Service struct {
	store   directory.Directory
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

func NewService(store directory.Directory, log logrus.FieldLogger) *Service {
	return &Service{store: store, log: logutil.OrDiscard(log)}
}

// Instrument records every served call on m.
func (s *Service) Instrument(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) observe(method string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	s.metrics.RPCFinished(method, result, time.Since(start))
}

func (s *Service) List(r *http.Request, args *EntriesArgs, reply *EntriesReply) error {
	start := time.Now()
	entries, err := s.store.List(r.Context(), args.Name)
	s.observe(MethodList, start, err)
	if err != nil {
		s.log.WithError(err).Error("list failed")
		return err
	}
	if entries == nil {
		entries = make([]string, 0)
	}
	s.log.WithField("count", len(entries)).Trace("list")
	*reply = EntriesReply{Name: args.Name, Entries: entries}
	return nil
}

func (s *Service) Add(r *http.Request, args *EntryArgs, reply *StatusReply) error {
	mode := directory.Mode(args.Mode)
	if mode == "" {
		mode = directory.ModeDefault
	}
	start := time.Now()
	err := s.store.Add(r.Context(), args.Name, args.Entry, mode)
	s.observe(MethodAdd, start, err)
	reply.Status = StatusSuccess
	if err != nil {
		s.log.WithError(err).Error("add failed")
		reply.Status = StatusError
	}
	return nil
}

func (s *Service) Remove(r *http.Request, args *EntryArgs, reply *StatusReply) error {
	start := time.Now()
	err := s.store.Remove(r.Context(), args.Name, args.Entry)
	s.observe(MethodRemove, start, err)
	reply.Status = StatusSuccess
	if err != nil {
		s.log.WithError(err).Error("remove failed")
		reply.Status = StatusError
	}
	return nil
}

// NewHandler returns an http.Handler serving svc with the JSON codec.
// Mount it on "/rpc".
func NewHandler(svc *Service) (http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	server.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	if err := server.RegisterService(svc, ServiceName); err != nil {
		return nil, err
	}
	return server, nil
}
