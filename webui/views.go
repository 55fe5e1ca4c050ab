package webui

import (
	"strings"

	"github.com/chasefleming/elem-go"
	"github.com/chasefleming/elem-go/attrs"

	"github.com/yornfifty/intentkit-chat/core/state"
)

// transcriptHTML renders the visible conversation for the SSE stream.
func (a *App) transcriptHTML() string {
	snapshot := a.controller.Snapshot()

	switch {
	case snapshot.Phase == state.PhaseChatLoading:
		return elem.Div(attrs.Props{attrs.Class: "loader"}).Render()
	case snapshot.Phase == state.PhaseChatActive && len(snapshot.Transcript) == 0:
		return elem.Div(attrs.Props{attrs.Class: "welcome"},
			elem.Text("Start the conversation by sending a message.")).Render()
	}

	var sb strings.Builder
	for _, node := range a.controller.Render() {
		sb.WriteString(node.Render())
	}
	return sb.String()
}

// pageHTML is the single-page shell; all state flows in over /sse.
func (a *App) pageHTML() string {
	page := elem.Html(attrs.Props{attrs.Lang: "en"},
		elem.Head(nil,
			elem.Meta(attrs.Props{attrs.Charset: "utf-8"}),
			elem.Title(nil, elem.Text("IntentKit Chat")),
			elem.Style(nil, elem.Text(pageCSS)),
		),
		elem.Body(nil,
			elem.Div(attrs.Props{attrs.Class: "sidebar"},
				elem.Select(attrs.Props{attrs.ID: "agent-picker"},
					elem.Option(attrs.Props{attrs.Value: ""}, elem.Text("Choose an agent"))),
				elem.Select(attrs.Props{attrs.ID: "chat-picker", attrs.Disabled: "true"}),
				elem.Button(attrs.Props{attrs.ID: "new-chat", attrs.Disabled: "true"},
					elem.Text("New chat")),
			),
			elem.Div(attrs.Props{attrs.ID: "transcript", attrs.Class: "transcript"}),
			elem.Form(attrs.Props{attrs.ID: "composer"},
				elem.Input(attrs.Props{
					attrs.ID:          "composer-input",
					attrs.Type:        "text",
					attrs.Placeholder: "Message",
					attrs.Disabled:    "true",
				}),
				elem.Button(attrs.Props{attrs.Type: "submit", attrs.Disabled: "true"},
					elem.Text("Send")),
			),
			elem.Div(attrs.Props{attrs.ID: "inspector", attrs.Class: "inspector hidden"}),
			elem.Script(nil, elem.Raw(pageJS)),
		),
	)
	return "<!DOCTYPE html>" + page.Render()
}

const pageCSS = `
body { font-family: sans-serif; margin: 0; display: flex; flex-direction: column; height: 100vh; }
.sidebar { padding: 8px; border-bottom: 1px solid #ddd; display: flex; gap: 8px; }
.transcript { flex: 1; overflow-y: auto; padding: 12px; }
.message { margin: 6px 0; padding: 8px; border-radius: 6px; max-width: 70%; }
.message-web { background: #dbeafe; margin-left: auto; }
.message-agent { background: #f1f5f9; }
.message-skill { background: #fef9c3; }
.message-system { background: #fee2e2; font-style: italic; }
.message-meta { font-size: 11px; color: #64748b; margin-top: 4px; }
.message-attachments img, .message-attachments video { max-width: 320px; display: block; margin-top: 6px; }
#composer { display: flex; gap: 8px; padding: 8px; border-top: 1px solid #ddd; }
#composer-input { flex: 1; }
.inspector { position: fixed; right: 0; top: 0; bottom: 0; width: 380px; overflow-y: auto;
  background: #fff; border-left: 1px solid #ddd; padding: 12px; }
.inspector.hidden { display: none; }
.loader { padding: 12px; color: #64748b; }
`

const pageJS = `
const agentPicker = document.getElementById('agent-picker');
const chatPicker = document.getElementById('chat-picker');
const newChat = document.getElementById('new-chat');
const transcript = document.getElementById('transcript');
const composer = document.getElementById('composer');
const input = document.getElementById('composer-input');
const sendButton = composer.querySelector('button');
const panel = document.getElementById('inspector');

const post = (path, body) => fetch(path, {
  method: 'POST',
  headers: {'Content-Type': 'application/json'},
  body: JSON.stringify(body || {})
});

const refreshChats = () => fetch('/api/chats').then(r => r.json()).then(chats => {
  chatPicker.innerHTML = '';
  chats.forEach(c => {
    const opt = document.createElement('option');
    opt.value = c.id;
    opt.textContent = c.label;
    chatPicker.appendChild(opt);
  });
  const last = chats[chats.length - 1];
  chatPicker.value = last ? last.id : '';
});

fetch('/api/agents').then(r => r.ok ? r.json() : []).then(agents => {
  agents.forEach(a => {
    const opt = document.createElement('option');
    opt.value = a.id;
    opt.textContent = a.name || a.id;
    opt.title = a.description || '';
    agentPicker.appendChild(opt);
  });
});

agentPicker.addEventListener('change', () => {
  if (!agentPicker.value) return;
  post('/api/agent/select', {id: agentPicker.value})
    .then(refreshChats);
  chatPicker.disabled = false;
  newChat.disabled = false;
});

chatPicker.addEventListener('change', () => {
  if (chatPicker.value) post('/api/chat/select', {chat_id: chatPicker.value});
});

newChat.addEventListener('click', () => post('/api/chat/new').then(refreshChats));

composer.addEventListener('submit', e => {
  e.preventDefault();
  const text = input.value.trim();
  if (!text) return;
  input.value = '';
  post('/api/chat/send', {message: text});
});

transcript.addEventListener('click', e => {
  const button = e.target.closest('.skill-call-button');
  if (!button) return;
  post('/api/skill/inspect', {id: button.dataset.skillId})
    .then(r => r.text())
    .then(html => { panel.innerHTML = html; panel.classList.remove('hidden'); });
});
panel.addEventListener('click', e => {
  if (e.target === panel) panel.classList.add('hidden');
});

const events = new EventSource('/sse');
events.addEventListener('transcript', e => {
  transcript.innerHTML = e.data;
  transcript.scrollTop = transcript.scrollHeight;
});
events.addEventListener('state', e => {
  const s = JSON.parse(e.data);
  const enabled = s.input_enabled;
  input.disabled = !enabled;
  sendButton.disabled = !enabled;
  newChat.disabled = s.phase === 'no-agent' || !enabled;
  chatPicker.disabled = s.phase === 'no-agent' || !enabled;
});
events.addEventListener('autoplay', e => {
  const el = document.getElementById(e.data);
  if (el && el.play) el.play().catch(() => {});
});
`
