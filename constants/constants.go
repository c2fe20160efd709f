package constants

const (
	NotFoundPage     = "{\"message\":\"This endpoint doesn't exist. The OAuth2 callback lives at /callback\",\"error\":true}"
	InternalError    = "{\"message\":\"Something went wrong on our end!\",\"error\":true}"
	MethodNotAllowed = "{\"message\":\"That method is not allowed for this endpoint!\",\"error\":true}"
	Ratelimited      = "{\"message\":\"You're being rate limited!\",\"error\":true}"
)

// User facing messages. They double as message catalog keys in the locales
// package, Korean is the source language.
const (
	MsgMissingCode      = "❌ 인증 실패: code가 없습니다."
	MsgCodeReused       = "❌ 인증 실패: 이미 사용된 code입니다."
	MsgTokenFailed      = "❌ 토큰 발급 실패: %s"
	MsgNoAccessToken    = "❌ 액세스 토큰이 없습니다."
	MsgUserFetchFailed  = "❌ 사용자 정보 조회 실패: %s"
	MsgStoreFailed      = "❌ 승인 정보를 저장하지 못했습니다. 잠시 후 다시 시도하세요."
	MsgApproved         = "✅ 승인 완료! 디스코드로 돌아가 /%s 명령어를 사용하세요."
	MsgInvitePrompt     = "아래 버튼 눌러 서버 참여를 승인하세요."
	MsgInviteButton     = "나 대신 서버에 참여하기"
	MsgNoUsers          = "승인한 사용자가 없습니다."
	MsgDispatchResult   = "✅ %d명 초대 완료, 실패 %d명"
	MsgDispatchFailed   = "❌ 초대를 진행하지 못했습니다."
	MsgGuildOnly        = "이 명령어는 서버에서만 사용할 수 있습니다."
	MsgGuildNotAllowed  = "이 서버에서는 사용할 수 없는 명령어입니다."
	DescInviteCommand   = "서버 참여 승인 버튼을 보냅니다"
	DescDispatchCommand = "승인한 사용자들을 이 서버에 초대합니다"
	InviteCommandName   = "버튼"
	DispatchCommandName = "컴온"
)
