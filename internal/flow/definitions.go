// Package flow: the shipped flow definitions.
package flow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/relevance"
)

// Field keys collected by the shipped flows.
const (
	FieldIndustry models.FieldKey = "industry"
	FieldName     models.FieldKey = "name"
	FieldEmail    models.FieldKey = "email"
	FieldPhone    models.FieldKey = "phone"
	FieldReferral models.FieldKey = "referral_source"
	FieldDate     models.FieldKey = "preferred_date"
	FieldPosition models.FieldKey = "position"
	FieldCompany  models.FieldKey = "company"
	FieldBrief    models.FieldKey = "brief"
	FieldMethod   models.FieldKey = "contact_method"
)

// validateEmail is the shared check for email-collecting steps.
func validateEmail(value string) error {
	if !strings.Contains(value, "@") || !strings.Contains(value, ".") {
		return errors.New("Please provide a valid email address:")
	}
	return nil
}

// branchOnOther redirects to target when the user picks the "Other" option.
func branchOnOther(target models.StepID) func(string) (models.StepID, bool) {
	return func(value string) (models.StepID, bool) {
		if strings.EqualFold(strings.TrimSpace(value), "Other") {
			return target, true
		}
		return "", false
	}
}

func quickReplies(values ...string) []models.Action {
	actions := make([]models.Action, len(values))
	for i, v := range values {
		actions[i] = models.Action{Label: v, Kind: models.ActionQuickReply, Value: v}
	}
	return actions
}

func staticPrompt(text string) func(*models.Session) string {
	return func(*models.Session) string { return text }
}

func demoDefinition() *Definition {
	return &Definition{
		Name:       models.FlowDemo,
		TotalSteps: 7,
		CancelText: "No problem, I've cancelled the demo request. Is there anything else I can help with?",
		Steps: []Step{
			{
				ID:      "awaiting_industry",
				Field:   FieldIndustry,
				Num:     1,
				Prompt:  staticPrompt("I'd be happy to arrange a demo!\n\nWhich industry is this for?"),
				Buttons: quickReplies("Government", "Finance", "Retail", "Other"),
				Branch:  branchOnOther("awaiting_custom_industry"),
				Next:    "awaiting_name",
			},
			{
				ID:     "awaiting_custom_industry",
				Field:  FieldIndustry,
				Num:    2,
				Prompt: staticPrompt("Which industry would you like the demo for? (Please specify)"),
				Next:   "awaiting_name",
			},
			{
				ID:    "awaiting_name",
				Field: FieldName,
				Num:   2,
				Prompt: func(s *models.Session) string {
					return fmt.Sprintf("Great! %s industry.\n\nWhat's your name?", s.Get(FieldIndustry))
				},
				Next: "awaiting_email",
			},
			{
				ID:    "awaiting_email",
				Field: FieldEmail,
				Num:   3,
				Prompt: func(s *models.Session) string {
					return fmt.Sprintf("Nice to meet you, %s!\n\nWhat's your email?", s.Get(FieldName))
				},
				Validate: validateEmail,
				Next:     "awaiting_phone",
			},
			{
				ID:     "awaiting_phone",
				Field:  FieldPhone,
				Num:    4,
				Prompt: staticPrompt("Perfect!\n\nWhat's your phone number?"),
				Next:   "awaiting_referral",
			},
			{
				ID:      "awaiting_referral",
				Field:   FieldReferral,
				Num:     5,
				Prompt:  staticPrompt("Thanks!\n\nHow did you hear about us?"),
				Buttons: quickReplies("Google Search", "Referral", "Social Media", "Advertisement", "Other"),
				Branch:  branchOnOther("awaiting_custom_referral"),
				Next:    "awaiting_date",
			},
			{
				ID:     "awaiting_custom_referral",
				Field:  FieldReferral,
				Num:    5,
				Prompt: staticPrompt("How did you hear about us? (Please specify)"),
				Next:   "awaiting_date",
			},
			{
				ID:     "awaiting_date",
				Field:  FieldDate,
				Num:    6,
				Prompt: staticPrompt("Great!\n\nWhat's your preferred date and time?"),
			},
		},
		Synthesize: func(s *models.Session, ticketID string) models.Lead {
			return models.Lead{
				Type:    models.LeadTypeDemoRequest,
				Name:    s.Get(FieldName),
				Contact: s.Get(FieldEmail) + " | " + s.Get(FieldPhone),
				Info: fmt.Sprintf("Industry: %s. Date: %s. Referral: %s",
					s.Get(FieldIndustry), s.Get(FieldDate), s.Get(FieldReferral)),
				Status:   models.LeadStatusNew,
				TicketID: ticketID,
				Metadata: collectedMetadata(s, FieldIndustry, FieldName, FieldEmail, FieldPhone, FieldReferral, FieldDate),
			}
		},
		Confirm: func(s *models.Session, ticketID string) (string, []models.Action) {
			text := fmt.Sprintf(`Demo Confirmed!

Your Details:
- Industry: %s
- Name: %s
- Email: %s
- Phone: %s
- Referral: %s
- Date: %s
- Ticket ID: %s

Our team will contact you shortly!`,
				s.Get(FieldIndustry), s.Get(FieldName), s.Get(FieldEmail),
				s.Get(FieldPhone), s.Get(FieldReferral), s.Get(FieldDate), ticketID)
			actions := []models.Action{
				{Label: "View Services", Kind: models.ActionOpenLink, URL: relevance.URLFor(relevance.CategoryServices)},
				{Label: "Case Studies", Kind: models.ActionOpenLink, URL: relevance.URLFor(relevance.CategoryCaseStudies)},
			}
			return text, actions
		},
	}
}

func careerDefinition() *Definition {
	return &Definition{
		Name:       models.FlowCareer,
		TotalSteps: 4,
		CancelText: "No problem, I've cancelled the application. Feel free to come back any time.",
		Steps: []Step{
			{
				ID:     "awaiting_name",
				Field:  FieldName,
				Num:    1,
				Prompt: staticPrompt("Excited to hear you're interested in joining us!\n\nLet me collect some information. What's your full name?"),
				Next:   "awaiting_email",
			},
			{
				ID:    "awaiting_email",
				Field: FieldEmail,
				Num:   2,
				Prompt: func(s *models.Session) string {
					return fmt.Sprintf("Great, %s! What's your email address?", s.Get(FieldName))
				},
				Validate: validateEmail,
				Next:     "awaiting_position",
			},
			{
				ID:      "awaiting_position",
				Field:   FieldPosition,
				Num:     3,
				Prompt:  staticPrompt("Which position are you interested in?"),
				Buttons: quickReplies("Data Analyst", "Software Engineer", "BI Consultant", "Other"),
			},
		},
		Synthesize: func(s *models.Session, ticketID string) models.Lead {
			return models.Lead{
				Type:     models.LeadTypeCareerApplication,
				Name:     s.Get(FieldName),
				Contact:  s.Get(FieldEmail),
				Info:     "Position: " + s.Get(FieldPosition),
				Status:   models.LeadStatusNew,
				TicketID: ticketID,
				Metadata: collectedMetadata(s, FieldName, FieldEmail, FieldPosition),
			}
		},
		Confirm: func(s *models.Session, ticketID string) (string, []models.Action) {
			text := fmt.Sprintf("Application Received!\n\nThank you for your interest in the %s position. Your application ID is %s.\n\nPlease email your resume to careers@instalogic.in with this ID in the subject line.",
				s.Get(FieldPosition), ticketID)
			actions := []models.Action{
				{Label: "View Careers Page", Kind: models.ActionOpenLink, URL: relevance.URLFor(relevance.CategoryCareers)},
			}
			return text, actions
		},
	}
}

func rfpDefinition() *Definition {
	return &Definition{
		Name:       models.FlowRFP,
		TotalSteps: 4,
		CancelText: "No problem, I've cancelled the RFP submission. Reach out whenever you're ready.",
		Steps: []Step{
			{
				ID:     "awaiting_company",
				Field:  FieldCompany,
				Num:    1,
				Prompt: staticPrompt("Thank you for considering us for your project!\n\nWhat's your company name?"),
				Next:   "awaiting_email",
			},
			{
				ID:       "awaiting_email",
				Field:    FieldEmail,
				Num:      2,
				Prompt:   staticPrompt("What's the best email to reach you at?"),
				Validate: validateEmail,
				Next:     "awaiting_brief",
			},
			{
				ID:     "awaiting_brief",
				Field:  FieldBrief,
				Num:    3,
				Prompt: staticPrompt("Please provide a brief description of your project:"),
			},
		},
		Synthesize: func(s *models.Session, ticketID string) models.Lead {
			return models.Lead{
				Type:     models.LeadTypeRFPUpload,
				Name:     "RFP Submission",
				Contact:  s.Get(FieldEmail),
				Info:     fmt.Sprintf("Company: %s. Brief: %s", s.Get(FieldCompany), s.Get(FieldBrief)),
				Status:   models.LeadStatusNew,
				TicketID: ticketID,
				Metadata: collectedMetadata(s, FieldCompany, FieldEmail, FieldBrief),
			}
		},
		Confirm: func(s *models.Session, ticketID string) (string, []models.Action) {
			text := fmt.Sprintf("RFP Received!\n\nYour RFP has been submitted successfully. Reference ID: %s\n\nOur proposals team will review it and respond within 24-48 hours. You can also email your detailed RFP document to proposals@instalogic.in", ticketID)
			actions := []models.Action{
				{Label: "Email RFP Document", Kind: models.ActionShowContact, Value: "proposals@instalogic.in"},
				{Label: "Schedule Call", Kind: models.ActionStartFlow, Flow: string(models.FlowContact)},
			}
			return text, actions
		},
	}
}

func contactDefinition() *Definition {
	return &Definition{
		Name:       models.FlowContact,
		TotalSteps: 3,
		CancelText: "No problem, I've cancelled the contact request. Is there anything else I can help with?",
		Steps: []Step{
			{
				ID:     "awaiting_name",
				Field:  FieldName,
				Num:    1,
				Prompt: staticPrompt("I'll help you get in touch with our team!\n\nWhat's your name?"),
				Next:   "awaiting_method",
			},
			{
				ID:    "awaiting_method",
				Field: FieldMethod,
				Num:   2,
				Prompt: func(s *models.Session) string {
					return fmt.Sprintf("Thanks, %s! How would you prefer to be contacted?", s.Get(FieldName))
				},
				Buttons: quickReplies("Email", "Phone", "Both"),
			},
		},
		Synthesize: func(s *models.Session, ticketID string) models.Lead {
			return models.Lead{
				Type:     models.LeadTypeContactRequest,
				Name:     s.Get(FieldName),
				Contact:  "Preferred: " + s.Get(FieldMethod),
				Info:     "Contact request via chat. Preferred method: " + s.Get(FieldMethod),
				Status:   models.LeadStatusNew,
				TicketID: ticketID,
				Metadata: collectedMetadata(s, FieldName, FieldMethod),
			}
		},
		Confirm: func(s *models.Session, ticketID string) (string, []models.Action) {
			channels := map[string]string{
				"email": "info@instalogic.in",
				"phone": SupportPhone,
				"both":  "info@instalogic.in / " + SupportPhone,
			}
			info, ok := channels[strings.ToLower(s.Get(FieldMethod))]
			if !ok {
				info = "info@instalogic.in"
			}
			text := fmt.Sprintf("Contact Request Received!\n\nReference ID: %s\n\nYou can also reach us directly at: %s", ticketID, info)
			actions := []models.Action{
				{Label: "Visit Website", Kind: models.ActionOpenLink, URL: relevance.URLFor(relevance.CategoryContact)},
				{Label: "View Services", Kind: models.ActionOpenLink, URL: relevance.URLFor(relevance.CategoryServices)},
			}
			return text, actions
		},
	}
}

// collectedMetadata copies the named collected fields into lead metadata.
func collectedMetadata(s *models.Session, keys ...models.FieldKey) map[string]string {
	m := make(map[string]string, len(keys))
	for _, k := range keys {
		m[string(k)] = s.Get(k)
	}
	return m
}
