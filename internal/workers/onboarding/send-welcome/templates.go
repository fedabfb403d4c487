package sendwelcome

import (
	"bytes"
	"fmt"
	"text/template"

	"onboarding-orchestrator/internal/onboarding/stepgraph"
)

type message struct {
	Subject string
	Text    string
	SMS     string
}

type messageData struct {
	Name     string
	Points   int
	LoginURL string
	Premium  bool
}

var welcomeTemplates = map[stepgraph.Role]message{
	stepgraph.RoleWorker: {
		Subject: "Welcome aboard, {{.Name}}",
		Text: "Hi {{.Name}},\n\nYour worker profile is live. Sponsors and agencies can now find you." +
			"{{if .Premium}} Your premium listing is active.{{end}}\n\nYou earned {{.Points}} points while setting up." +
			"{{if .LoginURL}}\n\nSign in: {{.LoginURL}}{{end}}\n",
		SMS: "Welcome {{.Name}}! Your worker profile is live.",
	},
	stepgraph.RoleSponsor: {
		Subject: "Welcome, {{.Name}}: your household profile is ready",
		Text: "Hi {{.Name}},\n\nYour household profile is ready and matching workers will be suggested shortly." +
			"{{if .LoginURL}}\n\nSign in: {{.LoginURL}}{{end}}\n",
		SMS: "Welcome {{.Name}}! Your household profile is ready.",
	},
	stepgraph.RoleAgency: {
		Subject: "{{.Name}} is now on the marketplace",
		Text: "Hello {{.Name}},\n\nYour agency account is active. You can start listing candidates." +
			"{{if .LoginURL}}\n\nSign in: {{.LoginURL}}{{end}}\n",
		SMS: "{{.Name}} is now live on the marketplace.",
	},
}

// render fills role's welcome message.
func render(role stepgraph.Role, data messageData) (*message, error) {
	tmpl, ok := welcomeTemplates[role]
	if !ok {
		return nil, fmt.Errorf("no welcome template for role %q", role)
	}
	if data.Name == "" {
		data.Name = "there"
	}

	out := &message{}
	for _, f := range []struct {
		src string
		dst *string
	}{
		{tmpl.Subject, &out.Subject},
		{tmpl.Text, &out.Text},
		{tmpl.SMS, &out.SMS},
	} {
		t, err := template.New("welcome").Parse(f.src)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return nil, err
		}
		*f.dst = buf.String()
	}
	return out, nil
}
