package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tem-backend/internal/model"
	"tem-backend/internal/repository"
	ws "tem-backend/internal/websocket"

	"github.com/google/uuid"
)

// Notifier fans out the side effects of a state transition: persisted
// notifications, best-effort websocket pushes, best-effort emails, and the
// audit entry for review outcomes. Every channel is independent; a failure
// in one never blocks another and never reaches the submit/review caller.
type Notifier interface {
	TravelSubmitted(ctx context.Context, req *model.TravelRequest)
	ExpenseSubmitted(ctx context.Context, claim *model.ExpenseClaim)
	TravelReviewed(ctx context.Context, req *model.TravelRequest, reviewer *model.User, decision, comments string)
	ExpenseReviewed(ctx context.Context, claim *model.ExpenseClaim, reviewer *model.User, decision, comments string)
	UserRegistered(ctx context.Context, user *model.User)
}

type notifier struct {
	notifRepo repository.NotificationRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	registry  ws.Registry
	email     EmailSender
}

func NewNotifier(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	registry ws.Registry,
	email EmailSender,
) Notifier {
	return &notifier{
		notifRepo: notifRepo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
		registry:  registry,
		email:     email,
	}
}

// persistAndPush writes the durable notification, then attempts the
// real-time push. The insert is the only channel whose failure is an error;
// the push silently drops when the recipient has no live connection.
func (n *notifier) persistAndPush(ctx context.Context, notif model.Notification) {
	if err := n.notifRepo.Insert(ctx, &notif); err != nil {
		slog.Error("failed to persist notification", "recipient", notif.RecipientID, "type", notif.Type, "error", err)
		return
	}
	n.registry.PushIfConnected(notif.RecipientID, notif)
}

// submission describes one submission event independent of entity kind.
type submission struct {
	submitter    *model.User
	kind         string
	notifType    string
	managerTitle string
	adminTitle   string
	message      string
	relatedID    uuid.UUID
	confirmEmail Email
	headsUpEmail func(manager *model.User) Email
}

func (n *notifier) fanOutSubmission(ctx context.Context, sub submission) {
	// Notify the submitter's assigned manager, if present and active
	var manager *model.User
	if sub.submitter.ManagerID != nil {
		m, err := n.userRepo.GetByID(ctx, *sub.submitter.ManagerID)
		if err != nil {
			slog.Warn("failed to load assigned manager for notification", "manager_id", *sub.submitter.ManagerID, "error", err)
		} else if m.IsActive {
			manager = m
			n.persistAndPush(ctx, model.Notification{
				RecipientID: manager.ID,
				Title:       sub.managerTitle,
				Message:     sub.message,
				Type:        sub.notifType,
				RelatedID:   &sub.relatedID,
				RelatedKind: sub.kind,
			})
		}
	}

	// Notify all active admins
	admins, err := n.userRepo.ListActiveAdmins(ctx)
	if err != nil {
		slog.Error("failed to list admins for notification", "error", err)
	} else if len(admins) > 0 {
		notifs := make([]model.Notification, 0, len(admins))
		for _, admin := range admins {
			notifs = append(notifs, model.Notification{
				RecipientID: admin.ID,
				Title:       sub.adminTitle,
				Message:     sub.message,
				Type:        sub.notifType,
				RelatedID:   &sub.relatedID,
				RelatedKind: sub.kind,
			})
		}
		if err := n.notifRepo.InsertBatch(ctx, notifs); err != nil {
			slog.Error("failed to persist admin notifications", "error", err)
		} else {
			for _, notif := range notifs {
				n.registry.PushIfConnected(notif.RecipientID, notif)
			}
		}
	}

	// Confirmation email to the submitter, heads-up to the manager
	n.sendEmail(ctx, sub.confirmEmail)
	if manager != nil && sub.headsUpEmail != nil {
		n.sendEmail(ctx, sub.headsUpEmail(manager))
	}
}

func (n *notifier) TravelSubmitted(ctx context.Context, req *model.TravelRequest) {
	submitter := req.Employee
	if submitter == nil {
		slog.Error("travel submission fan-out missing submitter", "request_id", req.ID)
		return
	}
	message := fmt.Sprintf("%s submitted a travel request to %s.", submitter.FullName(), req.Destination)
	n.fanOutSubmission(ctx, submission{
		submitter:    submitter,
		kind:         model.KindTravelRequest,
		notifType:    model.NotifTravelSubmitted,
		managerTitle: "New Travel Request Submitted",
		adminTitle:   "Travel Request Submitted",
		message:      message,
		relatedID:    req.ID,
		confirmEmail: Email{
			To:      submitter.Email,
			Subject: "Travel Request Submitted",
			Body: fmt.Sprintf(
				"Dear %s,\n\nYour travel request to %s from %s to %s has been successfully submitted and is pending approval.\n\nYou will receive an update as soon as your manager or admin reviews your request.",
				submitter.FullName(), req.Destination, formatDate(req.StartDate), formatDate(req.EndDate)),
		},
		headsUpEmail: func(manager *model.User) Email {
			return Email{
				To:      manager.Email,
				Subject: "New Travel Request Submitted",
				Body: fmt.Sprintf(
					"Dear %s,\n\nA new travel request has been submitted by %s to %s (%s to %s).\n\nPlease review and take action in the system.",
					manager.FullName(), submitter.FullName(), req.Destination, formatDate(req.StartDate), formatDate(req.EndDate)),
			}
		},
	})
}

func (n *notifier) ExpenseSubmitted(ctx context.Context, claim *model.ExpenseClaim) {
	submitter := claim.Employee
	if submitter == nil || claim.TravelRequest == nil {
		slog.Error("expense submission fan-out missing relations", "claim_id", claim.ID)
		return
	}
	destination := claim.TravelRequest.Destination
	message := fmt.Sprintf("%s submitted an expense claim of $%s for %s.", submitter.FullName(), claim.Amount.StringFixed(2), destination)
	n.fanOutSubmission(ctx, submission{
		submitter:    submitter,
		kind:         model.KindExpenseClaim,
		notifType:    model.NotifExpenseSubmitted,
		managerTitle: "New Expense Claim Submitted",
		adminTitle:   "Expense Claim Submitted",
		message:      message,
		relatedID:    claim.ID,
		confirmEmail: Email{
			To:      submitter.Email,
			Subject: "Expense Claim Submitted",
			Body: fmt.Sprintf(
				"Dear %s,\n\nYour expense claim of $%s for %s on %s has been successfully submitted and is pending approval.\n\nYou will receive an update as soon as your manager or admin reviews your claim.",
				submitter.FullName(), claim.Amount.StringFixed(2), destination, formatDate(claim.ExpenseDate)),
		},
		headsUpEmail: func(manager *model.User) Email {
			return Email{
				To:      manager.Email,
				Subject: "New Expense Claim Submitted",
				Body: fmt.Sprintf(
					"Dear %s,\n\nA new expense claim has been submitted by %s for %s.\n\nAmount: $%s\nExpense date: %s\n\nPlease review and take action in the system.",
					manager.FullName(), submitter.FullName(), destination, claim.Amount.StringFixed(2), formatDate(claim.ExpenseDate)),
			}
		},
	})
}

// reviewOutcome describes one review event independent of entity kind.
type reviewOutcome struct {
	submitter    *model.User
	reviewer     *model.User
	decision     string
	comments     string
	kind         string
	noun         string // "travel request" / "expense claim"
	titleNoun    string // "Travel Request" / "Expense Claim"
	subject      string // what the request is about, e.g. "to Berlin" / "of $120.00 for Berlin"
	relatedID    uuid.UUID
	auditAction  string
	auditDetails map[string]interface{}
}

func (n *notifier) fanOutReview(ctx context.Context, out reviewOutcome) {
	approvedType := model.NotifTravelApproved
	rejectedType := model.NotifTravelRejected
	if out.kind == model.KindExpenseClaim {
		approvedType = model.NotifExpenseApproved
		rejectedType = model.NotifExpenseRejected
	}
	notifType := approvedType
	if out.decision == model.StatusRejected {
		notifType = rejectedType
	}

	// Exactly one persisted notification for the submitter per outcome.
	// When an admin overrides on a manager's own submission, the title and
	// message call out the admin action explicitly.
	adminOverride := out.reviewer.Role == model.RoleAdmin && out.submitter.Role == model.RoleManager
	title := fmt.Sprintf("%s %s", out.titleNoun, out.decision)
	reviewerName := out.reviewer.FullName()
	if adminOverride {
		title += " (Admin Action)"
		reviewerName = "Admin " + reviewerName
	}
	message := fmt.Sprintf("Your %s %s has been %s by %s.", out.noun, out.subject, strings.ToLower(out.decision), reviewerName)
	if out.comments != "" {
		message += "\nReviewer's comment: " + out.comments
	}
	n.persistAndPush(ctx, model.Notification{
		RecipientID: out.submitter.ID,
		Title:       title,
		Message:     message,
		Type:        notifType,
		RelatedID:   &out.relatedID,
		RelatedKind: out.kind,
	})

	// Summary for every active admin except the acting reviewer
	admins, err := n.userRepo.ListActiveAdmins(ctx)
	if err != nil {
		slog.Error("failed to list admins for notification", "error", err)
	} else {
		summary := fmt.Sprintf("%s %s submitted by %s has been %s by %s.",
			out.titleNoun, out.subject, out.submitter.FullName(), strings.ToLower(out.decision), out.reviewer.FullName())
		if out.comments != "" {
			summary += "\nComment: " + out.comments
		}
		notifs := make([]model.Notification, 0, len(admins))
		for _, admin := range admins {
			if admin.ID == out.reviewer.ID {
				continue
			}
			notifs = append(notifs, model.Notification{
				RecipientID: admin.ID,
				Title:       fmt.Sprintf("%s %s by %s", out.titleNoun, out.decision, out.reviewer.FullName()),
				Message:     summary,
				Type:        notifType,
				RelatedID:   &out.relatedID,
				RelatedKind: out.kind,
			})
		}
		if err := n.notifRepo.InsertBatch(ctx, notifs); err != nil {
			slog.Error("failed to persist admin notifications", "error", err)
		} else {
			for _, notif := range notifs {
				n.registry.PushIfConnected(notif.RecipientID, notif)
			}
		}
	}

	// Audit trail for the decision
	details, _ := json.Marshal(out.auditDetails)
	reviewerID := out.reviewer.ID
	if err := n.auditRepo.Log(ctx, &model.AuditLog{
		UserID:     &reviewerID,
		Action:     out.auditAction,
		EntityID:   out.relatedID.String(),
		EntityName: out.kind,
		Details:    string(details),
	}); err != nil {
		slog.Warn("failed to write review audit log", "error", err)
	}

	// Outcome email to the submitter
	n.sendEmail(ctx, Email{
		To:      out.submitter.Email,
		Subject: fmt.Sprintf("Your %s has been %s", out.titleNoun, out.decision),
		Body: fmt.Sprintf(
			"Dear %s,\n\nYour %s %s has been %s by %s (%s).%s",
			out.submitter.FullName(), out.noun, out.subject, strings.ToLower(out.decision),
			out.reviewer.FullName(), out.reviewer.Role, commentLine(out.comments)),
	})
}

func (n *notifier) TravelReviewed(ctx context.Context, req *model.TravelRequest, reviewer *model.User, decision, comments string) {
	if req.Employee == nil {
		slog.Error("travel review fan-out missing submitter", "request_id", req.ID)
		return
	}
	action := model.ActionApproveTravelRequest
	if decision == model.StatusRejected {
		action = model.ActionRejectTravelRequest
	}
	n.fanOutReview(ctx, reviewOutcome{
		submitter:   req.Employee,
		reviewer:    reviewer,
		decision:    decision,
		comments:    comments,
		kind:        model.KindTravelRequest,
		noun:        "travel request",
		titleNoun:   "Travel Request",
		subject:     "to " + req.Destination,
		relatedID:   req.ID,
		auditAction: action,
		auditDetails: map[string]interface{}{
			"request_id":  req.ID.String(),
			"destination": req.Destination,
			"decision":    decision,
			"comments":    comments,
		},
	})
}

func (n *notifier) ExpenseReviewed(ctx context.Context, claim *model.ExpenseClaim, reviewer *model.User, decision, comments string) {
	if claim.Employee == nil {
		slog.Error("expense review fan-out missing submitter", "claim_id", claim.ID)
		return
	}
	destination := ""
	if claim.TravelRequest != nil {
		destination = claim.TravelRequest.Destination
	}
	action := model.ActionApproveExpenseClaim
	if decision == model.StatusRejected {
		action = model.ActionRejectExpenseClaim
	}
	n.fanOutReview(ctx, reviewOutcome{
		submitter:   claim.Employee,
		reviewer:    reviewer,
		decision:    decision,
		comments:    comments,
		kind:        model.KindExpenseClaim,
		noun:        "expense claim",
		titleNoun:   "Expense Claim",
		subject:     fmt.Sprintf("of $%s for %s", claim.Amount.StringFixed(2), destination),
		relatedID:   claim.ID,
		auditAction: action,
		auditDetails: map[string]interface{}{
			"claim_id": claim.ID.String(),
			"amount":   claim.Amount.StringFixed(2),
			"decision": decision,
			"comments": comments,
		},
	})
}

// UserRegistered tells every active admin a new account awaits approval.
func (n *notifier) UserRegistered(ctx context.Context, user *model.User) {
	admins, err := n.userRepo.ListActiveAdmins(ctx)
	if err != nil {
		slog.Error("failed to list admins for notification", "error", err)
		return
	}
	userID := user.ID
	notifs := make([]model.Notification, 0, len(admins))
	for _, admin := range admins {
		notifs = append(notifs, model.Notification{
			RecipientID: admin.ID,
			Title:       "New User Registration",
			Message:     fmt.Sprintf("%s (%s) registered and is awaiting account approval.", user.FullName(), user.Email),
			Type:        model.NotifUserPendingApproval,
			RelatedID:   &userID,
			RelatedKind: model.KindUser,
		})
	}
	if err := n.notifRepo.InsertBatch(ctx, notifs); err != nil {
		slog.Error("failed to persist admin notifications", "error", err)
		return
	}
	for _, notif := range notifs {
		n.registry.PushIfConnected(notif.RecipientID, notif)
	}
}

func (n *notifier) sendEmail(ctx context.Context, msg Email) {
	if msg.To == "" {
		return
	}
	if err := n.email.Send(ctx, msg); err != nil {
		slog.Warn("email send failed", "to", msg.To, "subject", msg.Subject, "error", err)
	}
}

func commentLine(comments string) string {
	if comments == "" {
		return ""
	}
	return "\n\nReviewer's comment: " + comments
}

func formatDate(t time.Time) string {
	return t.Format("02-01-2006")
}
