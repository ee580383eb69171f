package folio_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"folio/internal/folio"
	"folio/internal/testutil"
)

func TestInvite(t *testing.T) {
	ctx := context.Background()

	t.Run("mails a link and records the invitation", func(t *testing.T) {
		h := testutil.NewHarness(t)
		p := newProject(t, h, "Engine")

		inv, err := h.Service.Invite(ctx, p.ID, "Ada@Example.com")
		if err != nil {
			t.Fatalf("Invite() error = %v", err)
		}
		if inv.Email != "ada@example.com" {
			t.Errorf("Email = %q, want lowercased address", inv.Email)
		}

		sent := h.Mailer.Sent()
		if len(sent) != 1 {
			t.Fatalf("sent %d messages, want 1", len(sent))
		}
		wantLink := "https://folio.test/projects/" + p.ID + "/invitations/" + inv.ID
		if !strings.Contains(sent[0].Body, wantLink) {
			t.Errorf("body %q does not contain %q", sent[0].Body, wantLink)
		}
		if sent[0].To[0] != "ada@example.com" {
			t.Errorf("To = %v", sent[0].To)
		}

		pending, err := h.Service.ListInvitations(ctx, p.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(pending) != 1 || pending[0].ID != inv.ID {
			t.Errorf("ListInvitations() = %+v, want the new invitation", pending)
		}
		forEmail, err := h.Service.ListInvitationsForEmail(ctx, " ADA@example.com ")
		if err != nil {
			t.Fatal(err)
		}
		if len(forEmail) != 1 {
			t.Errorf("ListInvitationsForEmail() returned %d, want 1", len(forEmail))
		}
	})

	t.Run("delivery failure persists nothing", func(t *testing.T) {
		h := testutil.NewHarness(t)
		p := newProject(t, h, "Engine")
		relayDown := errors.New("relay down")
		h.Mailer.Fail(relayDown)

		_, err := h.Service.Invite(ctx, p.ID, "ada@example.com")
		assertKind(t, err, folio.KindDelivery)
		if !errors.Is(err, relayDown) {
			t.Errorf("errors.Is(err, relayDown) = false for %v", err)
		}
		pending, err := h.Service.ListInvitations(ctx, p.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(pending) != 0 {
			t.Errorf("ListInvitations() = %+v, want none", pending)
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		h := testutil.NewHarness(t)
		p := newProject(t, h, "Engine")
		for _, email := range []string{"", "not-an-email", "Ada <ada@example.com>"} {
			_, err := h.Service.Invite(ctx, p.ID, email)
			assertKind(t, err, folio.KindValidation)
		}
		_, err := h.Service.Invite(ctx, "missing", "ada@example.com")
		assertKind(t, err, folio.KindNotFound)
		if n := len(h.Mailer.Sent()); n != 0 {
			t.Errorf("sent %d messages for rejected invitations", n)
		}
	})
}

func TestAcceptInvitation(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewHarness(t)
	p := newProject(t, h, "Engine")
	other := newProject(t, h, "Other")

	inv, err := h.Service.Invite(ctx, p.ID, "ada@example.com")
	if err != nil {
		t.Fatal(err)
	}

	assertKind(t, h.Service.AcceptInvitation(ctx, other.ID, "ada", inv.ID), folio.KindNotFound)
	assertKind(t, h.Service.AcceptInvitation(ctx, p.ID, " ", inv.ID), folio.KindValidation)

	if err := h.Service.AcceptInvitation(ctx, p.ID, "ada", inv.ID); err != nil {
		t.Fatalf("AcceptInvitation() error = %v", err)
	}

	access, err := h.Service.IsCollaborator(ctx, p.ID, "ada", true)
	if err != nil || access != folio.AccessGranted {
		t.Errorf("IsCollaborator(visible) = %v, %v; want granted", access, err)
	}
	_, err = h.Service.GetInvitation(ctx, inv.ID)
	assertKind(t, err, folio.KindNotFound)

	assertKind(t, h.Service.AcceptInvitation(ctx, p.ID, "ada", inv.ID), folio.KindNotFound)
}

func TestDeclineInvitation(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewHarness(t)
	p := newProject(t, h, "Engine")
	inv, err := h.Service.Invite(ctx, p.ID, "ada@example.com")
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := h.Service.DeclineInvitation(ctx, inv.ID); err != nil {
			t.Fatalf("DeclineInvitation() #%d error = %v", i+1, err)
		}
	}
	_, err = h.Service.GetInvitation(ctx, inv.ID)
	assertKind(t, err, folio.KindNotFound)
	if access, _ := h.Service.IsCollaborator(ctx, p.ID, "ada", false); access != folio.AccessDenied {
		t.Errorf("IsCollaborator() after decline = %v, want denied", access)
	}
}

func TestCollaborators(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewHarness(t)
	p := newProject(t, h, "Engine")
	inv, err := h.Service.Invite(ctx, p.ID, "ada@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Service.AcceptInvitation(ctx, p.ID, "ada", inv.ID); err != nil {
		t.Fatal(err)
	}

	if err := h.Service.SetCollaboratorVisibility(ctx, p.ID, "ada", false); err != nil {
		t.Fatalf("SetCollaboratorVisibility() error = %v", err)
	}
	tests := []struct {
		requireVisible bool
		want           folio.Access
	}{
		{false, folio.AccessGranted},
		{true, folio.AccessDenied},
	}
	for _, tt := range tests {
		got, err := h.Service.IsCollaborator(ctx, p.ID, "ada", tt.requireVisible)
		if err != nil || got != tt.want {
			t.Errorf("IsCollaborator(requireVisible=%v) = %v, %v; want %v", tt.requireVisible, got, err, tt.want)
		}
	}
	assertKind(t, h.Service.SetCollaboratorVisibility(ctx, p.ID, "nobody", true), folio.KindNotFound)

	links, err := h.Service.ListCollaborators(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 2 {
		t.Fatalf("ListCollaborators() = %d links, want 2", len(links))
	}

	if err := h.Service.RemoveCollaborator(ctx, p.ID, "ada"); err != nil {
		t.Fatalf("RemoveCollaborator() error = %v", err)
	}
	assertKind(t, h.Service.RemoveCollaborator(ctx, p.ID, "ada"), folio.KindNotFound)
	assertKind(t, h.Service.RemoveCollaborator(ctx, p.ID, "owner"), folio.KindValidation)
}

func TestAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("empty user is denied", func(t *testing.T) {
		h := testutil.NewHarness(t)
		p := newProject(t, h, "Engine")
		got, err := h.Service.IsCollaborator(ctx, p.ID, "", false)
		if err != nil || got != folio.AccessDenied {
			t.Errorf("IsCollaborator(\"\") = %v, %v; want denied", got, err)
		}
	})

	t.Run("store failure is undetermined", func(t *testing.T) {
		store := &flakyStore{Store: testutil.NewTestStore(t)}
		h := testutil.NewHarnessWithStore(t, store)
		p := newProject(t, h, "Engine")

		store.lookupErr = errConnLost
		got, err := h.Service.IsCollaborator(ctx, p.ID, "owner", false)
		if got != folio.AccessUndetermined {
			t.Errorf("IsCollaborator() = %v, want undetermined", got)
		}
		assertKind(t, err, folio.KindUndetermined)
		if got.Granted() {
			t.Error("undetermined access reported as granted")
		}
	})

	t.Run("can view", func(t *testing.T) {
		h := testutil.NewHarness(t)
		private := newProject(t, h, "Private")
		public := newProject(t, h, "Public")
		if err := h.Service.UpdateProject(ctx, public.ID, folio.ProjectDraft{Title: "Public", Published: true}); err != nil {
			t.Fatal(err)
		}

		tests := []struct {
			name    string
			actor   folio.Actor
			project string
			want    folio.Access
		}{
			{"anonymous on published", folio.Actor{}, public.ID, folio.AccessGranted},
			{"anonymous on private", folio.Actor{}, private.ID, folio.AccessDenied},
			{"stranger on private", folio.Actor{UserID: "eve"}, private.ID, folio.AccessDenied},
			{"owner on private", owner, private.ID, folio.AccessGranted},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := h.Service.CanView(ctx, tt.actor, tt.project)
				if err != nil {
					t.Fatalf("CanView() error = %v", err)
				}
				if got != tt.want {
					t.Errorf("CanView() = %v, want %v", got, tt.want)
				}
			})
		}

		got, err := h.Service.CanView(ctx, owner, "missing")
		if got.Granted() {
			t.Errorf("CanView(missing) = %v, want not granted", got)
		}
		assertKind(t, err, folio.KindNotFound)
	})
}
