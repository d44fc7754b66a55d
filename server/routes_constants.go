package server

// Route paths relative to the locale prefix. Every page route lives under
// /{locale}/...; only the OAuth entry points sit outside it because the
// redirect URL registered with the provider is locale-less.
const (
	RouteHome           = ""
	RouteAbout          = "/about"
	RouteUsersList      = "/users"
	RouteUserProfile    = "/users/{id}"
	RouteCompaniesList  = "/companies"
	RouteCompanyProfile = "/companies/{id}"
	RouteCompanyQuizzes = "/companies/{id}/quizzes"
	RouteQuizProfile    = "/companies/{id}/quizzes/{quizID}"
	RouteLogin          = "/login"
	RouteRegister       = "/register"
	RouteLogout         = "/logout"
	RouteNotFound       = "/not-found"

	RouteGoogleLogin    = "/auth/google"
	RouteGoogleCallback = "/auth/google/callback"
)
