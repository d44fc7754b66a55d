package server

func (s *Server) initRoutes() {
	// Localized page routes. Locale and auth gates already ran in the
	// outer middleware; only the membership guard is per-route.
	s.RegisterRouteFunc("GET /{locale}", s.HomeHandler())
	s.RegisterRouteFunc("GET /{locale}"+RouteAbout, s.AboutHandler())

	s.RegisterRouteFunc("GET /{locale}"+RouteUsersList, s.UsersListHandler())
	s.RegisterRouteFunc("GET /{locale}"+RouteUserProfile, s.UserProfileHandler())

	s.RegisterRouteFunc("GET /{locale}"+RouteCompaniesList, s.CompaniesListHandler())
	s.RegisterRouteFunc("GET /{locale}"+RouteCompanyProfile, s.CompanyProfileHandler())
	s.RegisterRouteHandler("GET /{locale}"+RouteCompanyQuizzes,
		ChainMiddleware(s.CompanyQuizzesHandler(), s.RequireCompanyMembership()))
	s.RegisterRouteHandler("GET /{locale}"+RouteQuizProfile,
		ChainMiddleware(s.QuizProfileHandler(), s.RequireCompanyMembership()))

	// LOGIN / REGISTER
	s.RegisterRouteFunc("GET /{locale}"+RouteLogin, s.LoginPageHandler())
	s.RegisterRouteFunc("POST /{locale}"+RouteLogin, s.LoginSubmissionHandler())
	s.RegisterRouteFunc("GET /{locale}"+RouteRegister, s.RegisterPageHandler())
	s.RegisterRouteFunc("POST /{locale}"+RouteRegister, s.RegisterSubmissionHandler())
	s.RegisterRouteFunc("GET /{locale}"+RouteLogout, s.LogoutHandler())

	// OAuth entry points (locale-less, see routes_constants.go)
	s.RegisterRouteFunc("GET "+RouteGoogleLogin, s.GoogleLoginHandler())
	s.RegisterRouteFunc("GET "+RouteGoogleCallback, s.GoogleCallbackHandler())

	// Everything else under a locale is the not-found page.
	s.RegisterRouteFunc("GET /{locale}"+RouteNotFound, s.NotFoundHandler())
	s.RegisterRouteFunc("GET /{locale}/{path...}", s.NotFoundHandler())
}
