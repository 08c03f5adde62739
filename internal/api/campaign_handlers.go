package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/pkg/httputil"
	"github.com/ignite/adpilot/internal/service/campaign"
)

// accountStatusLabels maps Graph account_status values to readable labels.
var accountStatusLabels = map[int]string{
	1:   "active",
	2:   "disabled",
	3:   "unsettled",
	7:   "pending_risk_review",
	8:   "pending_settlement",
	9:   "in_grace_period",
	100: "pending_closure",
	101: "closed",
	201: "any_active",
	202: "any_closed",
}

// ListCampaigns returns the shop's campaigns, optionally filtered by
// status.
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	f := campaign.ListFilter{Status: r.URL.Query().Get("status")}
	if v := r.URL.Query().Get("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		f.Offset, _ = strconv.Atoi(v)
	}

	out, err := h.campaigns.List(r.Context(), shopFrom(r), f)
	if err != nil {
		respondError(w, err)
		return
	}
	if out == nil {
		out = []domain.Campaign{}
	}
	httputil.OK(w, map[string]interface{}{"campaigns": out})
}

// GetCampaign returns one campaign.
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Get(r.Context(), shopFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, c)
}

// CreateCompleteCampaign creates the full Campaign, AdSet, Creative and Ad
// tree. A step failure is reported in the 200 body, not as an HTTP error:
// the request itself succeeded, the transaction outcome is the payload.
func (h *Handlers) CreateCompleteCampaign(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credentials(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var in campaign.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}

	result, err := h.campaigns.CreateCompleteCampaign(r.Context(), creds.Shop, creds.MetaToken, in)
	if err != nil {
		respondError(w, err)
		return
	}
	if result.Success {
		httputil.Created(w, result)
		return
	}
	httputil.OK(w, result)
}

// ActivateCampaign flips the campaign to ACTIVE remotely, then locally.
func (h *Handlers) ActivateCampaign(w http.ResponseWriter, r *http.Request) {
	h.setCampaignStatus(w, r, h.campaigns.Activate)
}

// PauseCampaign flips the campaign to PAUSED remotely, then locally.
func (h *Handlers) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	h.setCampaignStatus(w, r, h.campaigns.Pause)
}

func (h *Handlers) setCampaignStatus(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, shop, token, id string) error) {
	creds, err := h.credentials(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := op(r.Context(), creds.Shop, creds.MetaToken, chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	httputil.NoContent(w)
}

// UpdateCampaignBudget pushes a new budget remotely, then mirrors it.
func (h *Handlers) UpdateCampaignBudget(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credentials(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var body struct {
		Amount float64 `json:"amount"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}
	if body.Amount <= 0 {
		httputil.BadRequest(w, "amount must be positive")
		return
	}

	if err := h.campaigns.UpdateBudget(r.Context(), creds.Shop, creds.MetaToken, chi.URLParam(r, "id"), body.Amount); err != nil {
		respondError(w, err)
		return
	}
	httputil.NoContent(w)
}

// DeleteCampaign deletes the campaign remotely, then locally.
func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credentials(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.campaigns.Delete(r.Context(), creds.Shop, creds.MetaToken, chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	httputil.NoContent(w)
}

// ListAdAccounts returns the shop's ad accounts. With ?refresh=true the
// list is re-fetched from the platform and the cache replaced.
func (h *Handlers) ListAdAccounts(w http.ResponseWriter, r *http.Request) {
	shop := shopFrom(r)

	if r.URL.Query().Get("refresh") == "true" {
		creds, err := h.credentials(r)
		if err != nil {
			respondError(w, err)
			return
		}
		remote, err := h.graph.GetAdAccounts(r.Context(), creds.MetaToken)
		if err != nil {
			respondError(w, err)
			return
		}

		// A refresh replaces the cache wholesale; the merchant's default
		// selection must survive it as long as the account still exists.
		existing, err := h.accounts.List(r.Context(), shop)
		if err != nil {
			respondError(w, err)
			return
		}
		defaultID := ""
		for _, a := range existing {
			if a.IsDefault {
				defaultID = a.AccountID
				break
			}
		}

		cached := make([]domain.AdAccount, 0, len(remote))
		for _, a := range remote {
			status := accountStatusLabels[a.AccountStatus]
			if status == "" {
				status = strconv.Itoa(a.AccountStatus)
			}
			cached = append(cached, domain.AdAccount{
				Shop:      shop,
				AccountID: a.ID,
				Name:      a.Name,
				Currency:  a.Currency,
				Status:    status,
				IsDefault: a.ID == defaultID,
			})
		}
		if err := h.accounts.ReplaceAll(r.Context(), shop, cached); err != nil {
			respondError(w, err)
			return
		}
	}

	accounts, err := h.accounts.List(r.Context(), shop)
	if err != nil {
		respondError(w, err)
		return
	}
	if accounts == nil {
		accounts = []domain.AdAccount{}
	}
	httputil.OK(w, map[string]interface{}{"ad_accounts": accounts})
}

// SetDefaultAdAccount marks one cached ad account as the shop's default.
// At most one account is default at a time; the repository clears the
// previous default in the same transaction.
func (h *Handlers) SetDefaultAdAccount(w http.ResponseWriter, r *http.Request) {
	err := h.accounts.SetDefault(r.Context(), shopFrom(r), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		httputil.NotFound(w, "ad account not found")
	case err != nil:
		respondError(w, err)
	default:
		httputil.NoContent(w)
	}
}

// UploadMedia stores a creative asset and returns its media ref.
func (h *Handlers) UploadMedia(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.BadRequest(w, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	ref, err := h.media.Upload(r.Context(), shopFrom(r), header.Filename,
		header.Header.Get("Content-Type"), file)
	if err != nil {
		respondError(w, err)
		return
	}

	url, err := h.media.ResolveURL(r.Context(), ref)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.Created(w, map[string]string{"media_ref": ref, "url": url})
}
