package gateway

// Field selections shared by queries and mutation payloads.
const (
	userFields = `id username email firstName lastName displayName avatar dateJoined`

	taskFields = `id title description status priority completed prompt isActive
		maxExecutions executionCount dueDate createdAt updatedAt completedAt lastExecutedAt
		linkedAccounts { id serviceName accountIdentifier isActive }
		actions { id name actionType }`

	messageFields = `id title content summary status priority messageType isRead readAt
		createdAt updatedAt processedAt externalMessageId
		sourceAccount { id serviceName accountIdentifier }
		task { id title }`

	accountFields = `id serviceName accountIdentifier isActive addedAt lastSyncedAt`

	actionFields = `id name actionType description isActive requiresConfig configSchema createdAt`

	executionFields = `id status configData resultData errorMessage startedAt completedAt
		action { id name actionType }
		triggeringTask { id title }`
)

// Tasks.
const (
	queryMyTasks = `query GetMyTasks {
	myTasks { ` + taskFields + ` }
}`

	queryTask = `query GetTask($id: ID!) {
	task(id: $id) { ` + taskFields + ` }
}`

	queryTasksByStatus = `query GetTasksByStatus($status: String!) {
	tasksByStatus(status: $status) { ` + taskFields + ` }
}`

	mutationCreateTask = `mutation CreateTask($taskData: TaskInput!) {
	createTask(taskData: $taskData) {
		success
		errors
		task { ` + taskFields + ` }
	}
}`

	mutationUpdateTask = `mutation UpdateTask($taskId: ID!, $taskData: TaskInput!) {
	updateTask(taskId: $taskId, taskData: $taskData) {
		success
		errors
		task { ` + taskFields + ` }
	}
}`

	mutationDeleteTask = `mutation DeleteTask($taskId: ID!) {
	deleteTask(taskId: $taskId) { success errors }
}`
)

// Messages.
const (
	queryMyMessages = `query GetMyMessages {
	myMessages { ` + messageFields + ` }
}`

	queryUnreadMessages = `query GetUnreadMessages {
	unreadMessages { ` + messageFields + ` }
}`

	queryUnprocessedMessages = `query GetUnprocessedMessages {
	unprocessedMessages { ` + messageFields + ` }
}`

	queryMessage = `query GetMessage($id: ID!) {
	message(id: $id) { ` + messageFields + ` }
}`

	mutationCreateMessage = `mutation CreateMessage($messageData: MessageInput!) {
	createMessage(messageData: $messageData) {
		success
		errors
		message { ` + messageFields + ` }
	}
}`

	mutationMarkMessageRead = `mutation MarkMessageAsRead($messageId: ID!) {
	markMessageAsRead(messageId: $messageId) {
		success
		errors
		message { id isRead readAt }
	}
}`

	mutationSummarizeMessage = `mutation SummarizeMessage($messageId: ID!) {
	summarizeMessage(messageId: $messageId) {
		success
		errors
		message { id summary status processedAt }
	}
}`

	mutationDeleteMessage = `mutation DeleteMessage($messageId: ID!) {
	deleteMessage(messageId: $messageId) { success errors }
}`
)

// Linked accounts.
const (
	queryLinkedAccounts = `query GetLinkedAccounts {
	linkedAccounts { ` + accountFields + ` }
}`

	queryLinkedAccount = `query GetLinkedAccount($id: ID!) {
	linkedAccount(id: $id) { ` + accountFields + ` }
}`

	mutationLinkAccount = `mutation LinkAccount($serviceName: String!, $accountIdentifier: String!, $token: String!, $refreshToken: String) {
	linkAccount(serviceName: $serviceName, accountIdentifier: $accountIdentifier, token: $token, refreshToken: $refreshToken) {
		success
		errors
		account { ` + accountFields + ` }
	}
}`

	mutationUnlinkAccount = `mutation UnlinkAccount($accountId: ID!) {
	unlinkAccount(accountId: $accountId) { success errors }
}`
)

// Actions.
const (
	queryAvailableActions = `query GetAvailableActions {
	availableActions { ` + actionFields + ` }
}`

	queryMyExecutions = `query GetMyActionExecutions {
	myActionExecutions { ` + executionFields + ` }
}`

	mutationExecuteAction = `mutation ExecuteAction($executionData: ExecuteActionInput!) {
	executeAction(executionData: $executionData) {
		success
		errors
		execution { ` + executionFields + ` }
	}
}`
)

// Auth.
const (
	queryMe = `query Me {
	me { ` + userFields + ` }
}`

	mutationLogin = `mutation Login($credentials: LoginInput!) {
	login(credentials: $credentials) {
		success
		errors
		accessToken
		refreshToken
		user { ` + userFields + ` }
	}
}`

	mutationRegister = `mutation Register($userData: RegisterInput!) {
	register(userData: $userData) {
		success
		errors
		accessToken
		refreshToken
		user { ` + userFields + ` }
	}
}`
)
