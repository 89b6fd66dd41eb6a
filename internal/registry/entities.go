package registry

// Default returns the registry of the four entities exposed to the admin
// panel. Labels and icons feed the sidebar; the field lists drive both the
// table columns and the create/edit form.
func Default() *Registry {
	r, err := New(
		Descriptor{
			Name:  "User",
			Table: "users",
			Label: "Users",
			Icon:  "Users",
			Fields: []Field{
				{Name: "email", Kind: KindEmail},
				{Name: "phone", Kind: KindText},
				{Name: "name", Kind: KindText},
				{Name: "role", Kind: KindRole},
				{Name: "emailVerified", Kind: KindBoolean},
				{Name: "phoneVerified", Kind: KindBoolean},
			},
		},
		Descriptor{
			Name:  "Session",
			Table: "sessions",
			Label: "Sessions",
			Icon:  "Database",
			Fields: []Field{
				{Name: "userId", Kind: KindID},
				{Name: "expiresAt", Kind: KindDate},
				{Name: "createdAt", Kind: KindDate},
			},
		},
		Descriptor{
			Name:  "Account",
			Table: "accounts",
			Label: "Accounts",
			Icon:  "Shield",
			Fields: []Field{
				{Name: "userId", Kind: KindID},
				{Name: "providerId", Kind: KindText},
				{Name: "accountId", Kind: KindID},
				{Name: "createdAt", Kind: KindDate},
			},
		},
		Descriptor{
			Name:  "Verification",
			Table: "verifications",
			Label: "Verifications",
			Icon:  "Mail",
			Fields: []Field{
				{Name: "identifier", Kind: KindText},
				{Name: "value", Kind: KindText},
				{Name: "expiresAt", Kind: KindDate},
				{Name: "createdAt", Kind: KindDate},
			},
		},
	)
	if err != nil {
		// The default registration list is static, a failure here is a
		// programming error.
		panic(err)
	}
	return r
}
