package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/eaegeea/rag-chatbot/internal/core/domain"
	"github.com/eaegeea/rag-chatbot/internal/core/ports"
)

// blockRetriever is the slice of the retriever the chat pipeline needs.
type blockRetriever interface {
	Retrieve(ctx context.Context, userEmail, query string, threshold float64) ([]domain.RetrievedBlock, error)
}

// rosterResolver is the slice of the resolver the shortcut path needs.
type rosterResolver interface {
	AuthorizedClients(ctx context.Context, userEmail string) []domain.Client
}

// ChatUseCase orchestrates the query pipeline: shortcut classification,
// authorization-aware retrieval, and answer synthesis. Authorization is fully
// enforced before the generator sees any content.
type ChatUseCase struct {
	users     ports.UserRepository
	resolver  rosterResolver
	retriever blockRetriever
	generator ports.AnswerGenerator
	threshold float64
	logger    *slog.Logger
}

func NewChatUseCase(
	users ports.UserRepository,
	resolver rosterResolver,
	retriever blockRetriever,
	generator ports.AnswerGenerator,
	threshold float64,
	logger *slog.Logger,
) *ChatUseCase {
	if threshold == 0 {
		threshold = DefaultSimilarityThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatUseCase{
		users:     users,
		resolver:  resolver,
		retriever: retriever,
		generator: generator,
		threshold: threshold,
		logger:    logger,
	}
}

func (uc *ChatUseCase) Chat(ctx context.Context, userEmail, message string) (*domain.ChatAnswer, error) {
	if strings.TrimSpace(userEmail) == "" || strings.TrimSpace(message) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat", fmt.Errorf("user and message are required"))
	}

	if IsClientListQuery(message) {
		return &domain.ChatAnswer{
			Response:     uc.clientListResponse(ctx, userEmail),
			ContextCount: 0,
			QueryType:    domain.QueryTypeClientList,
		}, nil
	}

	blocks, err := uc.retriever.Retrieve(ctx, userEmail, message, uc.threshold)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	if len(blocks) == 0 {
		return &domain.ChatAnswer{
			Response:     uc.noContextResponse(ctx, userEmail),
			ContextCount: 0,
			QueryType:    domain.QueryTypeRAGSearch,
		}, nil
	}

	answer, err := uc.generator.GenerateAnswer(ctx, message, blocks)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &domain.ChatAnswer{
		Response:     answer,
		ContextCount: len(blocks),
		QueryType:    domain.QueryTypeRAGSearch,
	}, nil
}

// clientListResponse enumerates the authorized roster grouped by region.
// Deterministic and complete, independent of the note corpus.
func (uc *ChatUseCase) clientListResponse(ctx context.Context, userEmail string) string {
	clients := uc.resolver.AuthorizedClients(ctx, userEmail)

	user, err := uc.users.GetByEmail(ctx, userEmail)
	if err != nil {
		if !domain.IsKind(err, domain.ErrNotFound) {
			uc.logger.Error("load user for client list", "user", userEmail, "error", err)
		}
		user = nil
	}

	if len(clients) == 0 {
		if user == nil {
			return "No clients found for your account."
		}
		return fmt.Sprintf(`You don't currently have any clients assigned to you. This could be because:

- No clients have been assigned to your account yet
- There may be an issue with your permissions
- Your role (%s) may not have client assignments

Please contact your sales manager for assistance.`, user.Role)
	}

	byRegion := make(map[string][]domain.Client)
	for _, c := range clients {
		region := c.RegionName
		if region == "" {
			region = "Unknown Region"
		}
		byRegion[region] = append(byRegion[region], c)
	}
	regions := make([]string, 0, len(byRegion))
	for name := range byRegion {
		regions = append(regions, name)
	}
	sort.Strings(regions)

	var b strings.Builder
	b.WriteString("Here are your authorized clients:\n\n")
	if user != nil {
		b.WriteString(fmt.Sprintf("**Your Role**: %s - %s Region\n\n", roleLabel(user.Role), user.RegionName))
	}
	for _, region := range regions {
		group := byRegion[region]
		b.WriteString(fmt.Sprintf("**%s Region** (%d clients):\n", region, len(group)))
		for _, c := range group {
			assigned := ""
			if c.AssignedUserName != "" {
				assigned = fmt.Sprintf(" - Assigned to: %s", c.AssignedUserName)
			}
			b.WriteString(fmt.Sprintf("- **%s** at %s%s\n", c.Name, c.Company, assigned))
		}
		b.WriteString("\n")
	}
	plural := "s"
	if len(clients) == 1 {
		plural = ""
	}
	b.WriteString(fmt.Sprintf("**Total**: %d client%s\n\n", len(clients), plural))
	b.WriteString("You can ask me specific questions about any of these clients, such as their concerns, pricing discussions, or deal sizes.")
	return b.String()
}

// noContextResponse explains an empty result without revealing whether
// restricted data exists, tailored to the user's role and region.
func (uc *ChatUseCase) noContextResponse(ctx context.Context, userEmail string) string {
	user, err := uc.users.GetByEmail(ctx, userEmail)
	if err != nil {
		if !domain.IsKind(err, domain.ErrNotFound) {
			uc.logger.Error("load user for empty-context response", "user", userEmail, "error", err)
		}
		return "No relevant information found in your accessible client notes."
	}

	scope := "assigned client list"
	roleNote := "As a salesperson, you can only access information about your assigned clients."
	switch user.Role {
	case domain.RoleSalesManager:
		scope = fmt.Sprintf("%s region", user.RegionName)
		roleNote = fmt.Sprintf("As a %s region manager, you can access all client information within your region.", user.RegionName)
	case domain.RoleCEO:
		scope = "organization"
		roleNote = "As CEO, you can access client information across the whole organization."
	}

	return fmt.Sprintf(`I don't have access to information about that topic in your authorized client notes. This could be because:

- The information doesn't exist in the available client notes
- You don't have permission to access that specific information
- The topic might relate to clients outside your %s

%s

Try asking about topics related to your authorized clients, such as:
- Client concerns and feedback
- Pricing discussions
- Product requirements
- Integration challenges`, scope, roleNote)
}

func roleLabel(role domain.Role) string {
	switch role {
	case domain.RoleSalesManager:
		return "Sales Manager"
	case domain.RoleCEO:
		return "CEO"
	default:
		return "Salesperson"
	}
}
