package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zkerkeb-class/payment-services-MalicknND/errors"
)

// listPackagesHandler returns the static credit package catalog.
func (a *API) listPackagesHandler(w http.ResponseWriter, _ *http.Request) {
	httpWriteJSON(w, a.stripe.Packages())
}

// packageInfoHandler returns a single credit package by its identifier.
func (a *API) packageInfoHandler(w http.ResponseWriter, r *http.Request) {
	packageID := chi.URLParam(r, "packageId")
	if packageID == "" {
		errors.ErrMalformedURLParam.Withf("missing packageId").Write(w)
		return
	}

	pkg := a.stripe.PackageByID(packageID)
	if pkg == nil {
		errors.ErrPackageNotFound.Withf("unknown package %q", packageID).Write(w)
		return
	}

	httpWriteJSON(w, pkg)
}
