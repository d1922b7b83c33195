package notify

// 通知文案
// 固定文案集中在这里，方便统一调整措辞

const helpText = "Social chat commands:\n\n" +
	"/start  make yourself available for chat\n" +
	"/next   disconnect and chat with someone else\n" +
	"/stop   make yourself unavailable for chat\n" +
	"/who    show whether you're currently chatting\n" +
	"/me     relay an action to your chat partner\n" +
	"/help   show this help text\n\n" +
	"Anything else you type goes to your chat partner."

// renderBody 渲染一条固定文案通知
// 部分类型的后半句取决于当前是否有配对对象
func renderBody(kind Kind, hasPartner bool) string {
	switch kind {
	case KindAlreadyStarted:
		body := "You'd already made yourself available for chat.\n\n"
		if hasPartner {
			return body + "And you're already chatting with a partner!"
		}
		return body + "Looking for a chat partner..."

	case KindStarted:
		body := "You've made yourself available for chat.\n\n"
		if hasPartner {
			return body + "Now chatting with a partner.  Say hello!"
		}
		return body + "Looking for a chat partner..."

	case KindChatting:
		return "Now chatting with a partner.  Say hello!"

	case KindNotStarted:
		return "You're not currently chatting with a partner, and you're " +
			"unavailable for chat.\n\nType /start to make yourself " +
			"available for chat."

	case KindNotChatting:
		return "You're not currently chatting with a partner, but you're " +
			"available for chat.\n\nLooking for a chat partner..."

	case KindNexted:
		body := "You've disconnected from your current chat partner.\n\n"
		if hasPartner {
			return body + "Now chatting with a new partner.  Say hello!"
		}
		return body + "Looking for a new chat partner..."

	case KindBeenNexted:
		body := "Your current chat partner has disconnected.\n\n"
		if hasPartner {
			return body + "Now chatting with a new partner.  Say hello!"
		}
		return body + "Looking for a new chat partner..."

	case KindAlreadyStopped:
		return "You'd already made yourself unavailable for chat."

	case KindStopped:
		return "You've made yourself unavailable for chat."

	case KindUndeliverable:
		return "Couldn't deliver your message to your chat partner.\n\n" +
			"Please try to send your message again, " +
			"or type /next to chat with someone else."

	case KindHelp:
		return helpText

	case KindWho:
		// 配对是匿名的，只说有没有对象，不说对象是谁
		if hasPartner {
			return "You're currently chatting with a partner.\n\n" +
				"Type /next to chat with someone else, " +
				"or /stop to stop chatting."
		}
		return "You're not currently chatting with a partner."

	case KindRequiresAccount:
		return "To chat with strangers, you must sign up first.\n\n" +
			"Sign up, then type /start to begin."

	default:
		return ""
	}
}

// renderRelay 渲染转发给配对对象的聊天文字
// me 动作消息加统一前缀，普通消息原样转发
func renderRelay(body string, me bool) string {
	if me {
		return "* Your partner " + body
	}
	return body
}
