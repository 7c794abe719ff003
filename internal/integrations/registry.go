package integrations

import (
	"log"

	"taskpilot-backend/internal/agent"
	"taskpilot-backend/internal/config"
	"taskpilot-backend/internal/integrations/todoist"
	"taskpilot-backend/internal/models"
)

// BuildRegistry constructs the process-wide handler registry: the
// entity/verb triples for every supported service plus the legacy flat
// intents kept for backward compatibility. The registry is populated once
// here and read-only afterwards.
func BuildRegistry(tasks *todoist.Adapter, slackInt *SlackIntegration, notionInt *NotionIntegration) *agent.Registry {
	registry := agent.NewRegistry()

	td := string(models.ServiceTypeTodoist)
	registry.Register(td, "TASK", "CREATE", tasks.CreateTask)
	registry.Register(td, "TASK", "UPDATE", tasks.UpdateTask)
	registry.Register(td, "TASK", "DELETE", tasks.DeleteTask)
	registry.Register(td, "TASK", "COMPLETE", tasks.CompleteTask)
	registry.Register(td, "TASK", "REOPEN", tasks.ReopenTask)
	registry.Register(td, "TASK", "LIST", tasks.ListTasks)
	registry.Register(td, "TASK", "GET", tasks.GetTask)
	registry.Register(td, "TASK", "SEARCH", tasks.SearchTasks)
	registry.Register(td, "PROJECT", "CREATE", tasks.CreateProject)
	registry.Register(td, "PROJECT", "GET", tasks.GetProject)
	registry.Register(td, "PROJECT", "UPDATE", tasks.UpdateProject)
	registry.Register(td, "PROJECT", "DELETE", tasks.DeleteProject)
	registry.Register(td, "PROJECT", "LIST", tasks.ListProjects)
	registry.Register(td, "SECTION", "CREATE", tasks.CreateSection)
	registry.Register(td, "SECTION", "DELETE", tasks.DeleteSection)
	registry.Register(td, "SECTION", "LIST", tasks.ListSections)
	registry.Register(td, "LABEL", "CREATE", tasks.CreateLabel)
	registry.Register(td, "LABEL", "DELETE", tasks.DeleteLabel)
	registry.Register(td, "LABEL", "LIST", tasks.ListLabels)
	registry.Register(td, "COMMENT", "CREATE", tasks.CreateComment)
	registry.Register(td, "COMMENT", "LIST", tasks.ListComments)

	// Flat intents that predate the ENTITY_ACTION scheme.
	registry.RegisterLegacy(td, "create_task", tasks.CreateTask)
	registry.RegisterLegacy(td, "check_tasks", tasks.ListTasks)

	sl := string(models.ServiceTypeSlack)
	registry.Register(sl, "MESSAGE", "SEND", slackInt.SendMessage)
	registry.Register(sl, "CHANNEL", "LIST", slackInt.ListChannels)
	registry.RegisterLegacy(sl, "send_message", slackInt.SendMessage)

	no := string(models.ServiceTypeNotion)
	registry.Register(no, "NOTE", "CREATE", notionInt.CreateNote)
	registry.Register(no, "NOTE", "SEARCH", notionInt.SearchNotes)
	registry.RegisterLegacy(no, "create_note", notionInt.CreateNote)

	log.Println("[Integrations] Handler registry populated.")
	return registry
}

// NewCredentialGate builds the pre-execution credential check from config.
// Services with no registered handlers (GeneralConversation and anything
// unknown) pass through; the router reports those as not executable.
func NewCredentialGate(cfg *config.Config) agent.CredentialGate {
	return func(service string) error {
		switch models.ServiceType(service) {
		case models.ServiceTypeTodoist:
			if cfg.TodoistAPIKey == "" {
				return agent.FormatConfigurationError("Todoist", "TODOIST_API_KEY")
			}
		case models.ServiceTypeSlack:
			if cfg.SlackBotToken == "" {
				return agent.FormatConfigurationError("Slack", "SLACK_BOT_TOKEN")
			}
		case models.ServiceTypeNotion:
			if cfg.NotionAPIKey == "" {
				return agent.FormatConfigurationError("Notion", "NOTION_API_KEY")
			}
		}
		return nil
	}
}
