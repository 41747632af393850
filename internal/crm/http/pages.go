package http

import (
	"net/http"

	"github.com/abodyssee/crm/internal/crm/session"
)

// DefaultLoginPath is the unlisted address of the login page.
const DefaultLoginPath = "/admin-secret-login-8934"

// ProtectedPages are the HTML pages served from the private directory to
// authenticated staff only.
var ProtectedPages = []string{
	"admin-crm.html",
	"inscription-client.html",
	"email-template.html",
}

const (
	loginPage = "login.html"
	homePage  = "/admin-crm.html"
)

// PagesHandler serves the private HTML pages and their scripts.
type PagesHandler struct {
	Files *FileResolver
}

// HandleLogin serves the login page, or sends an authenticated visitor
// straight to the CRM.
func (h *PagesHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.FromContext(r.Context()); ok {
		http.Redirect(w, r, homePage, http.StatusFound)
		return
	}
	h.Files.ServeProtected(w, r, loginPage)
}

// Page serves one fixed file; the session guard is applied by the router.
func (h *PagesHandler) Page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.Files.ServeProtected(w, r, name)
	}
}

// HandleScript serves /js/{file...} from the private js directory without
// a session: the pages load these before the auth check completes.
func (h *PagesHandler) HandleScript(w http.ResponseWriter, r *http.Request) {
	h.Files.ServeWithin(w, r, "js", r.PathValue("file"))
}

// HandlePrivate serves /private/{file...}.
func (h *PagesHandler) HandlePrivate(w http.ResponseWriter, r *http.Request) {
	h.Files.ServeProtected(w, r, r.PathValue("file"))
}
