package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/ordering"
	"github.com/nhle/kaizen/internal/service"
)

// Reply actions.
const (
	ActionCreateTasks = "create_tasks"
	ActionNone        = "none"
)

const (
	fallbackReply = "I'm sorry, I'm having trouble processing your request right now. Please try again."
	fallbackChat  = "I'm sorry, I'm having trouble responding right now. Please try again."
	emptyChat     = "I'm not sure how to respond to that."
)

const plannerPrompt = `You are Hiro, an intelligent AI assistant for a todo/task management app called Kaizen. Your role is to help users manage their tasks efficiently.

Key capabilities:
1. Create task lists and tasks based on user requests
2. Provide task management advice and productivity tips
3. Parse natural language commands to create organized task lists

When a user asks you to create tasks/lists (e.g., "create a list for planning a birthday", "help me plan a vacation", "make a grocery list"), you should:
1. Identify that they want to create tasks
2. Generate an appropriate list name
3. Generate relevant tasks with titles and optional descriptions
4. Respond in a structured JSON format

Response format for task creation:
{
  "action": "create_tasks",
  "data": {
    "listName": "List Name",
    "tasks": [
      {
        "title": "Task title",
        "description": "Optional description",
        "due_date": "Optional ISO date string"
      }
    ],
    "message": "A friendly confirmation message"
  }
}

For regular conversation (no task creation), respond in this format:
{
  "action": "none",
  "message": "Your helpful response"
}

Be helpful, friendly, and concise. Focus on productivity and task management.`

const chatPrompt = `You are Hiro, a friendly AI assistant for a todo/task management app called Kaizen.
Help users with task management, productivity tips, and general questions about organizing their work.
Keep responses concise and helpful.`

// Completer produces a chat completion.
type Completer interface {
	Complete(ctx context.Context, cr CompletionRequest) (string, error)
}

// ListCreator writes a planned list and its tasks.
type ListCreator interface {
	CreateListWithTasks(ctx context.Context, sess model.Session, name string, tasks []service.NewTask) (*model.TaskList, []model.Task, error)
}

// PlannedTask is one task proposed by the assistant.
type PlannedTask struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

// TaskPlan is a list the assistant proposes to create.
type TaskPlan struct {
	ListName string        `json:"listName"`
	Tasks    []PlannedTask `json:"tasks"`
	Message  string        `json:"message,omitempty"`
}

// Reply is the assistant's answer to one message. Data is set only when
// Action is ActionCreateTasks.
type Reply struct {
	Action  string    `json:"action"`
	Message string    `json:"message"`
	Data    *TaskPlan `json:"data,omitempty"`
}

// TaskPlanner turns chat messages into task lists.
type TaskPlanner struct {
	llm   Completer
	lists ListCreator
}

// NewTaskPlanner creates a planner that asks llm and writes through lists.
func NewTaskPlanner(llm Completer, lists ListCreator) *TaskPlanner {
	return &TaskPlanner{llm: llm, lists: lists}
}

// Process sends msg with the prior history and decodes the structured reply.
// It never fails: any API or decoding problem yields the apology reply.
func (p *TaskPlanner) Process(ctx context.Context, history []Message, msg string) Reply {
	messages := append([]ChatMessage{{Role: string(RoleSystem), Content: plannerPrompt}}, toChat(history)...)
	messages = append(messages, ChatMessage{Role: string(RoleUser), Content: msg})

	out, err := p.llm.Complete(ctx, CompletionRequest{
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   1000,
		JSON:        true,
	})
	if err != nil {
		log.Printf("processing assistant message: %v", err)
		return Reply{Action: ActionNone, Message: fallbackReply}
	}

	reply, err := parseReply(out)
	if err != nil {
		log.Printf("decoding assistant reply: %v", err)
		return Reply{Action: ActionNone, Message: fallbackReply}
	}
	return reply
}

func parseReply(raw string) (Reply, error) {
	var r Reply
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &r); err != nil {
		return Reply{}, fmt.Errorf("decoding reply: %w", err)
	}
	switch r.Action {
	case ActionCreateTasks:
		if r.Data == nil || strings.TrimSpace(r.Data.ListName) == "" {
			return Reply{}, fmt.Errorf("create_tasks reply without a list")
		}
		if r.Message == "" {
			r.Message = r.Data.Message
		}
	case "", ActionNone:
		r.Action = ActionNone
		r.Data = nil
	default:
		return Reply{}, fmt.Errorf("unknown action %q", r.Action)
	}
	return r, nil
}

// Chat answers msg as free text without proposing tasks.
func (p *TaskPlanner) Chat(ctx context.Context, history []Message, msg string) string {
	messages := append([]ChatMessage{{Role: string(RoleSystem), Content: chatPrompt}}, toChat(history)...)
	messages = append(messages, ChatMessage{Role: string(RoleUser), Content: msg})

	out, err := p.llm.Complete(ctx, CompletionRequest{
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		log.Printf("getting assistant response: %v", err)
		return fallbackChat
	}
	if strings.TrimSpace(out) == "" {
		return emptyChat
	}
	return out
}

// Execute creates the planned list with its tasks in plan order.
func (p *TaskPlanner) Execute(ctx context.Context, sess model.Session, plan TaskPlan) (*model.TaskList, []model.Task, error) {
	tasks := make([]service.NewTask, 0, len(plan.Tasks))
	for _, pt := range plan.Tasks {
		nt := service.NewTask{Title: pt.Title, Description: pt.Description}
		if pt.DueDate != "" {
			due, err := parseDueDate(pt.DueDate)
			if err != nil {
				return nil, nil, err
			}
			nt.DueDate = &due
		}
		tasks = append(tasks, nt)
	}
	return p.lists.CreateListWithTasks(ctx, sess, plan.ListName, tasks)
}

func parseDueDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ordering.Invalid("due_date", "unrecognized date %q", s)
}
