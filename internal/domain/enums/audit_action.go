package enums

type AuditAction string

const (
	AuditActionUserWarned       AuditAction = "USER_WARNED"
	AuditActionUserSuspended    AuditAction = "USER_SUSPENDED"
	AuditActionUserUnsuspended  AuditAction = "USER_UNSUSPENDED"
	AuditActionLexiconReloaded  AuditAction = "LEXICON_RELOADED"
	AuditActionLexiconUpdated   AuditAction = "LEXICON_UPDATED"
	AuditActionAdminViewHistory AuditAction = "ADMIN_VIEW_HISTORY"
)
