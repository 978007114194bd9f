package harvest

// DefaultVersion is used when a Config does not name a version.
const DefaultVersion = "v1"

// DefaultRegistry returns a fresh copy of the built-in Harvest endpoint table.
func DefaultRegistry() Registry {
	return Registry{
		"v1": {
			Base: "https://harvest.greenhouse.io/v1",
			URIs: URIs{Direct: harvestV1()},
		},
	}
}

func listRetrieve(path string) Endpoint {
	return Endpoint{List: path, Retrieve: path + "/{id}"}
}

func harvestV1() map[string]Endpoint {
	applications := listRetrieve("applications")
	applications.Related = map[string]RelatedEndpoint{
		"scorecards":           {List: "applications/{rel_id}/scorecards"},
		"scheduled_interviews": {List: "applications/{rel_id}/scheduled_interviews"},
		"offers":               {List: "applications/{rel_id}/offers"},
		"current_offer":        {Retrieve: "applications/{rel_id}/offers/current_offer"},
		"eeoc":                 {Retrieve: "applications/{rel_id}/eeoc"},
		"demographic_answers":  {List: "applications/{rel_id}/demographics/answers"},
	}

	candidates := listRetrieve("candidates")
	candidates.Related = map[string]RelatedEndpoint{
		"activity_feed": {List: "candidates/{rel_id}/activity_feed"},
		"notes":         {List: "candidates/{rel_id}/activity_feed/notes"},
		"emails":        {List: "candidates/{rel_id}/activity_feed/emails"},
		"applications":  {List: "candidates/{rel_id}/applications"},
		"attachments":   {List: "candidates/{rel_id}/attachments"},
		"educations":    {List: "candidates/{rel_id}/educations", Retrieve: "candidates/{rel_id}/educations/{id}"},
		"employments":   {List: "candidates/{rel_id}/employments", Retrieve: "candidates/{rel_id}/employments/{id}"},
	}

	customFields := listRetrieve("custom_fields")
	customFields.Related = map[string]RelatedEndpoint{
		"options": {List: "custom_field/{rel_id}/custom_field_options"},
	}

	jobs := listRetrieve("jobs")
	jobs.Related = map[string]RelatedEndpoint{
		"job_posts":      {List: "jobs/{rel_id}/job_posts"},
		"job_post":       {Retrieve: "jobs/{rel_id}/job_post"},
		"stages":         {List: "jobs/{rel_id}/stages"},
		"openings":       {List: "jobs/{rel_id}/openings", Retrieve: "jobs/{rel_id}/openings/{id}"},
		"hiring_team":    {Retrieve: "jobs/{rel_id}/hiring_team"},
		"approval_flows": {List: "jobs/{rel_id}/approval_flows"},
	}

	users := listRetrieve("users")
	users.Related = map[string]RelatedEndpoint{
		"pending_approvals": {List: "users/{rel_id}/pending_approvals"},
		"job_permissions":   {List: "users/{rel_id}/permissions/jobs"},
	}

	return map[string]Endpoint{
		"applications":              applications,
		"approval_flows":            {Retrieve: "approval_flows/{id}"},
		"candidates":                candidates,
		"close_reasons":             listRetrieve("close_reasons"),
		"custom_fields":             customFields,
		"degrees":                   {List: "degrees"},
		"demographic_answers":       listRetrieve("demographics/answers"),
		"demographic_question_sets": listRetrieve("demographics/question_sets"),
		"departments":               listRetrieve("departments"),
		"disciplines":               {List: "disciplines"},
		"eeoc":                      {List: "eeoc"},
		"email_templates":           listRetrieve("email_templates"),
		"job_posts":                 listRetrieve("job_posts"),
		"job_stages":                listRetrieve("job_stages"),
		"jobs":                      jobs,
		"offers":                    listRetrieve("offers"),
		"offices":                   listRetrieve("offices"),
		"prospect_pools":            listRetrieve("prospect_pools"),
		"rejection_reasons":         {List: "rejection_reasons"},
		"scheduled_interviews":      listRetrieve("scheduled_interviews"),
		"schools":                   {List: "schools"},
		"scorecards":                listRetrieve("scorecards"),
		"sources":                   {List: "sources"},
		"tags":                      {List: "tags/candidate"},
		"tracking_links":            {Retrieve: "tracking_links/{id}"},
		"user_roles":                {List: "user_roles"},
		"users":                     users,
	}
}
