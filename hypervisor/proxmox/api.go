package proxmox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/BYEONGHWALEE-dev/cloud-service/hypervisor"
	"github.com/BYEONGHWALEE-dev/cloud-service/metrics"
	"github.com/BYEONGHWALEE-dev/cloud-service/types"
	"github.com/BYEONGHWALEE-dev/cloud-service/utils"
)

// envelope is the {"data": ...} wrapper around every PVE response.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

type ticketResponse struct {
	Ticket string `json:"ticket"`
	CSRF   string `json:"CSRFPreventionToken"`
}

// login exchanges username/password for a ticket.
func (p *Proxmox) login(ctx context.Context) (*ticket, error) {
	form := url.Values{
		"username": {p.conf.Username},
		"password": {p.conf.Password},
	}
	body, err := utils.DoWithRetryIf(ctx, hypervisor.IsTransient, func() ([]byte, error) {
		return utils.DoAPI(ctx, p.hc, http.MethodPost, p.conf.url("/access/ticket"), form, nil, http.StatusOK)
	})
	if err != nil {
		if utils.IsStatus(err, http.StatusUnauthorized) || utils.IsStatus(err, http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %w", types.ErrAuthFailure, err)
		}
		return nil, err
	}
	var resp ticketResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	if resp.Ticket == "" {
		return nil, fmt.Errorf("%w: empty ticket for %s", types.ErrAuthFailure, p.conf.Username)
	}
	return &ticket{value: resp.Ticket, csrf: resp.CSRF}, nil
}

// call performs an authenticated request and decodes data into out (may be nil).
// A 401 drops the session and the request is retried exactly once.
func (p *Proxmox) call(ctx context.Context, method, path string, form url.Values, out any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveRemote(method, start, err) }()

	body, err := p.send(ctx, method, path, form)
	if utils.IsStatus(err, http.StatusUnauthorized) {
		log.WithFunc("proxmox.call").Warnf(ctx, "%s %s: session rejected, re-authenticating", method, path)
		metrics.ObserveReauth()
		body, err = p.send(ctx, method, path, form)
	}
	if err != nil {
		return hypervisor.Classify(fmt.Sprintf("%s %s", method, path), err)
	}
	if out == nil {
		return nil
	}
	if err := decode(body, out); err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, types.ErrRemoteUnavailable, err)
	}
	return nil
}

func (p *Proxmox) send(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	t, err := p.sess.get(ctx, p.login)
	if err != nil {
		return nil, err
	}
	body, err := utils.DoWithRetryIf(ctx, hypervisor.IsTransient, func() ([]byte, error) {
		return utils.DoAPI(ctx, p.hc, method, p.conf.url(path), form, t.header(method), http.StatusOK)
	})
	if utils.IsStatus(err, http.StatusUnauthorized) {
		p.sess.invalidate(t)
	}
	return body, err
}

func decode(body []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// task performs a call whose data is a task UPID.
func (p *Proxmox) task(ctx context.Context, method, path string, form url.Values) (types.TaskHandle, error) {
	var upid string
	if err := p.call(ctx, method, path, form, &upid); err != nil {
		return "", err
	}
	if upid == "" {
		return "", fmt.Errorf("%s %s: %w: no task id in response", method, path, types.ErrRemoteUnavailable)
	}
	return types.TaskHandle(upid), nil
}
