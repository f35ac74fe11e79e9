package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// ACCOUNT
	s.RegisterAccountRoute("POST "+RouteLogin, s.LoginHandler())
	s.RegisterAccountRoute("POST "+RouteRefresh, s.RefreshHandler())
	s.RegisterAccountRoute("POST "+RouteLogout, s.LogoutHandler())
	s.RegisterAccountRoute("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.RequireAuth()))
	s.RegisterAccountRoute("GET "+RouteMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP)

	// F&B
	s.RegisterFnBRoute("POST "+RouteSchedulesBulk, ChainMiddleware(s.BulkCreateHandler(), s.RequireAuth()))
	s.RegisterFnBRoute("GET "+RouteResourceList, ChainMiddleware(s.ListHandler(), s.RequireAuth()))
	s.RegisterFnBRoute("POST "+RouteResourceList, ChainMiddleware(s.CreateHandler(), s.RequireAuth()))
	s.RegisterFnBRoute("GET "+RouteResourceDetail, ChainMiddleware(s.GetHandler(), s.RequireAuth()))
	s.RegisterFnBRoute("PUT "+RouteResourceDetail, ChainMiddleware(s.ReplaceHandler(), s.RequireAuth()))
	s.RegisterFnBRoute("PATCH "+RouteResourceDetail, ChainMiddleware(s.PatchHandler(), s.RequireAuth()))
	s.RegisterFnBRoute("DELETE "+RouteResourceDetail, ChainMiddleware(s.DeleteHandler(), s.RequireAuth()))
}
