package agent

import "scangestor/internal/domain"

const functionalTemplate = `You are an expert assistant for the ScanGasto application.
Use the following documentation context to answer the user's question precisely and in detail.

Question category: {category}
Search mode: {search_mode}

CONTEXT:
{context}

QUESTION: {question}

ANSWER: Give a clear, structured answer based only on the context provided. Include practical examples or steps to follow when useful.
If the context does not contain enough information, say so clearly. You may propose changes that would add new functionality based on the question.`

const technicalTemplate = `You are an expert technical assistant for the ScanGasto application.
Use the following technical documentation context to answer the user's question precisely and in detail.

Question category: {category}
Search mode: {search_mode}

CONTEXT:
{context}

QUESTION: {question}

ANSWER: Give a clear, structured technical answer based only on the context provided.
Include relevant technical details, architecture, APIs, technologies and implementation patterns when needed.
If the context does not contain enough information, say so clearly. If you need more information you may ask for it.
Mention that the support e-mail is {support_email}.`

const managementTemplate = `You are an expert management assistant for the ScanGasto application.
Use the following documentation context about processes and organisation to answer the user's question precisely and in detail.

Question category: {category}
Search mode: {search_mode}

CONTEXT:
{context}

QUESTION: {question}

ANSWER: Give a clear, structured answer based only on the context provided.
Include information about processes, procedures, organisation, responsibilities, documentation and administration when relevant.
If the context does not contain enough information, say so clearly.
Mention that the project lead's e-mail is {management_contact}.`

const (
	DefaultSupportEmail      = "soporte@scangasto.com"
	DefaultManagementContact = "angel@scangasto.com"
)

// Functional answers questions about features, use cases and user workflows.
type Functional struct{ base }

func NewFunctional(deps Deps) *Functional {
	return &Functional{newBase(deps, domain.Functional, "functional", functionalTemplate, nil)}
}

// Technical answers questions about implementation and architecture.
type Technical struct{ base }

func NewTechnical(deps Deps, supportEmail string) *Technical {
	if supportEmail == "" {
		supportEmail = DefaultSupportEmail
	}
	return &Technical{newBase(deps, domain.Technical, "technical", technicalTemplate,
		map[string]string{"support_email": supportEmail})}
}

// Management answers questions about processes and organisation.
type Management struct{ base }

func NewManagement(deps Deps, contact string) *Management {
	if contact == "" {
		contact = DefaultManagementContact
	}
	return &Management{newBase(deps, domain.Management, "management", managementTemplate,
		map[string]string{"management_contact": contact})}
}

// Set holds one agent per known category.
type Set struct {
	Functional Agent
	Technical  Agent
	Management Agent
}

// For returns the agent for c. Unknown has no agent.
func (s Set) For(c domain.Category) (Agent, bool) {
	switch c {
	case domain.Functional:
		return s.Functional, s.Functional != nil
	case domain.Technical:
		return s.Technical, s.Technical != nil
	case domain.Management:
		return s.Management, s.Management != nil
	}
	return nil, false
}

// All returns the agents in dispatch order.
func (s Set) All() []Agent {
	return []Agent{s.Functional, s.Technical, s.Management}
}
